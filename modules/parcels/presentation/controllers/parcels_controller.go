package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/swiftparcel/parceld/modules/parcels/domain/aggregates/parcel"
	"github.com/swiftparcel/parceld/modules/parcels/domain/entities/parceltype"
	"github.com/swiftparcel/parceld/modules/parcels/services"
	"github.com/swiftparcel/parceld/pkg/middleware"
	"github.com/swiftparcel/parceld/pkg/rabbitmq"
)

type registrationService interface {
	Register(ctx context.Context, dto services.RegisterParcelDTO, sessionID string) (parcel.RegistrationMessage, error)
}

type parcelService interface {
	GetByID(ctx context.Context, id uuid.UUID) (parcel.Parcel, error)
	List(ctx context.Context, params *parcel.FindParams) ([]parcel.Parcel, error)
}

type parcelTypeService interface {
	GetAll(ctx context.Context) ([]parceltype.ParcelType, error)
	Create(ctx context.Context, name string) (parceltype.ParcelType, error)
}

type ParcelsController struct {
	registrations registrationService
	parcels       parcelService
	types         parcelTypeService
	pageSize      int
	maxPageSize   int
}

func NewParcelsController(
	registrations registrationService,
	parcels parcelService,
	types parcelTypeService,
	pageSize, maxPageSize int,
) *ParcelsController {
	return &ParcelsController{
		registrations: registrations,
		parcels:       parcels,
		types:         types,
		pageSize:      pageSize,
		maxPageSize:   maxPageSize,
	}
}

func (c *ParcelsController) Register(r *mux.Router) {
	r.HandleFunc("/parcels", c.Create).Methods(http.MethodPost)
	r.HandleFunc("/parcels/my", c.GetMy).Methods(http.MethodGet)
	r.HandleFunc("/parcels/{parcelId}", c.GetByID).Methods(http.MethodGet)
	r.HandleFunc("/parcel_types", c.GetTypes).Methods(http.MethodGet)
	r.HandleFunc("/parcel_types", c.CreateType).Methods(http.MethodPost)
}

type parcelOut struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Weight            float64 `json:"weight"`
	ContentValueCents int64   `json:"content_value_cents"`
	DeliveryCostCents *int64  `json:"delivery_cost_cents"`
	SessionID         *string `json:"session_id"`
	ParcelType        string  `json:"parcel_type"`
}

func toParcelOut(p parcel.Parcel) parcelOut {
	return parcelOut{
		ID:                p.ID.String(),
		Name:              p.Name,
		Weight:            p.Weight,
		ContentValueCents: p.ContentValueCents,
		DeliveryCostCents: p.DeliveryCostCents,
		SessionID:         p.SessionID,
		ParcelType:        p.ParcelTypeName,
	}
}

func (c *ParcelsController) Create(w http.ResponseWriter, r *http.Request) {
	var dto services.RegisterParcelDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid json")
		return
	}

	_, err := c.registrations.Register(r.Context(), dto, middleware.UseSessionID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, parceltype.ErrNotFound):
			writeAPIError(w, http.StatusNotFound, "Parcel type not found")
		case errors.Is(err, parcel.ErrValidation):
			writeAPIError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, rabbitmq.ErrQueueUnavailable):
			writeAPIError(w, http.StatusServiceUnavailable, "registration queue unavailable")
		default:
			writeAPIError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Parcel accepted and will be processed",
	})
}

func (c *ParcelsController) GetMy(w http.ResponseWriter, r *http.Request) {
	params := &parcel.FindParams{
		SessionID: middleware.UseSessionID(r.Context()),
		Limit:     c.pageSize,
	}

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("parcel_type_id")); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "invalid parcel_type_id")
			return
		}
		params.ParcelTypeID = &id
	}
	if v := strings.TrimSpace(q.Get("has_delivery_cost")); v != "" {
		has, err := strconv.ParseBool(v)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "invalid has_delivery_cost")
			return
		}
		params.HasDeliveryCost = &has
	}
	if v := strings.TrimSpace(q.Get("skip")); v != "" {
		if skip, err := strconv.Atoi(v); err == nil && skip >= 0 {
			params.Offset = skip
		}
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 && limit <= c.maxPageSize {
			params.Limit = limit
		}
	}

	items, err := c.parcels.List(r.Context(), params)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]parcelOut, 0, len(items))
	for _, p := range items {
		out = append(out, toParcelOut(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *ParcelsController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["parcelId"])
	if err != nil {
		writeAPIError(w, http.StatusNotFound, "Parcel not found")
		return
	}

	p, err := c.parcels.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, parcel.ErrNotFound) {
			writeAPIError(w, http.StatusNotFound, "Parcel not found")
			return
		}
		writeAPIError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toParcelOut(p))
}

type parcelTypeOut struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (c *ParcelsController) GetTypes(w http.ResponseWriter, r *http.Request) {
	items, err := c.types.GetAll(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]parcelTypeOut, 0, len(items))
	for _, t := range items {
		out = append(out, parcelTypeOut{ID: t.ID, Name: t.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *ParcelsController) CreateType(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid json")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || len(in.Name) > 50 {
		writeAPIError(w, http.StatusBadRequest, "name must be 1-50 characters")
		return
	}

	t, err := c.types.Create(r.Context(), in.Name)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, parcelTypeOut{ID: t.ID, Name: t.Name})
}
