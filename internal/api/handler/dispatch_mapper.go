package handler

import (
	"github.com/samber/lo"

	"github.com/99minutos/event-pickup/internal/core/domain"
	"github.com/99minutos/event-pickup/internal/core/ports"
)

// toDispatchInput maps a validated request to the service DTO.
func toDispatchInput(eventID string, r dispatchRequest) ports.DispatchInput {
	return ports.DispatchInput{
		EventID: eventID,
		Driver:  toCoordinate(r.Driver),
		Roster: lo.Map(r.Roster, func(s stopRequest, _ int) domain.Stop {
			return domain.Stop{SubscriberID: s.SubscriberID, Location: toCoordinate(s.Location)}
		}),
		Mode: ports.DispatchMode(r.Mode),
	}
}

func toCoordinate(r coordinateRequest) domain.Coordinate {
	return domain.Coordinate{Lat: lo.FromPtr(r.Lat), Lng: lo.FromPtr(r.Lng)}
}

func toSignalInput(r signalRequest) ports.SignalInput {
	return ports.SignalInput{
		EventID:      r.EventID,
		SubscriberID: r.SubscriberID,
		Kind:         ports.SignalKind(r.Kind),
	}
}

func toPlanResponse(p *domain.DispatchPlan) planResponse {
	return planResponse{
		EventID:     p.EventID,
		Driver:      coordinateResponse(p.Driver),
		GeneratedAt: p.GeneratedAt,
		Entries: lo.Map(p.Entries, func(e domain.PlanEntry, _ int) planEntryResponse {
			return planEntryResponse{
				SubscriberID: e.SubscriberID,
				Sequence:     e.Sequence,
				DistanceKm:   e.DistanceKm,
				ETAMinutes:   e.ETAMinutes,
				Warnings:     e.Warnings,
			}
		}),
	}
}

func toPickupResponse(r *domain.PickupRequest) pickupResponse {
	return pickupResponse{
		ID:           r.ID,
		EventID:      r.EventID,
		SubscriberID: r.SubscriberID,
		Status:       string(r.Status),
		Sequence:     r.Sequence,
		Location:     coordinateResponse(r.Location),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
