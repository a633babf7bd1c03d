package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftparcel/parceld/modules/parcels/domain/aggregates/parcel"
	"github.com/swiftparcel/parceld/modules/parcels/domain/entities/parceltype"
	"github.com/swiftparcel/parceld/modules/parcels/services"
	"github.com/swiftparcel/parceld/pkg/constants"
	"github.com/swiftparcel/parceld/pkg/rabbitmq"
)

type fakeRegistrations struct {
	err      error
	lastDTO  services.RegisterParcelDTO
	lastSID  string
	received bool
}

func (f *fakeRegistrations) Register(_ context.Context, dto services.RegisterParcelDTO, sessionID string) (parcel.RegistrationMessage, error) {
	f.received = true
	f.lastDTO = dto
	f.lastSID = sessionID
	if f.err != nil {
		return parcel.RegistrationMessage{}, f.err
	}
	return parcel.RegistrationMessage{EventID: uuid.New()}, nil
}

type fakeParcels struct {
	byID       map[uuid.UUID]parcel.Parcel
	listErr    error
	lastParams *parcel.FindParams
}

func (f *fakeParcels) GetByID(_ context.Context, id uuid.UUID) (parcel.Parcel, error) {
	p, ok := f.byID[id]
	if !ok {
		return parcel.Parcel{}, parcel.ErrNotFound
	}
	return p, nil
}

func (f *fakeParcels) List(_ context.Context, params *parcel.FindParams) ([]parcel.Parcel, error) {
	f.lastParams = params
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]parcel.Parcel, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, nil
}

type fakeTypes struct {
	all       []parceltype.ParcelType
	createErr error
}

func (f *fakeTypes) GetAll(context.Context) ([]parceltype.ParcelType, error) {
	return f.all, nil
}

func (f *fakeTypes) Create(_ context.Context, name string) (parceltype.ParcelType, error) {
	if f.createErr != nil {
		return parceltype.ParcelType{}, f.createErr
	}
	return parceltype.ParcelType{ID: len(f.all) + 1, Name: name}, nil
}

type controllerFixture struct {
	registrations *fakeRegistrations
	parcels       *fakeParcels
	types         *fakeTypes
	router        *mux.Router
}

func newFixture() *controllerFixture {
	f := &controllerFixture{
		registrations: &fakeRegistrations{},
		parcels:       &fakeParcels{byID: make(map[uuid.UUID]parcel.Parcel)},
		types:         &fakeTypes{},
	}
	f.router = mux.NewRouter()
	NewParcelsController(f.registrations, f.parcels, f.types, 10, 100).Register(f.router)
	return f
}

func (f *controllerFixture) do(method, target, body, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if sessionID != "" {
		req = req.WithContext(context.WithValue(req.Context(), constants.SessionIDKey, sessionID))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateParcelAccepted(t *testing.T) {
	t.Parallel()

	f := newFixture()
	rec := f.do(http.MethodPost, "/parcels",
		`{"name":"books","weight":1.5,"content_value_cents":10,"parcel_type":"clothes"}`, "sid-1")

	require.Equal(t, http.StatusAccepted, rec.Code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Parcel accepted and will be processed", out["message"])

	assert.Equal(t, "sid-1", f.registrations.lastSID)
	assert.Equal(t, "books", f.registrations.lastDTO.Name)
	assert.InDelta(t, 10.0, f.registrations.lastDTO.ContentValue, 0)
}

func TestCreateParcelErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown type", parceltype.ErrNotFound, http.StatusNotFound},
		{"validation failure", errors.Wrap(parcel.ErrValidation, "weight must be positive"), http.StatusBadRequest},
		{"queue down", rabbitmq.ErrQueueUnavailable, http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			f.registrations.err = tc.err

			rec := f.do(http.MethodPost, "/parcels",
				`{"name":"books","weight":1.5,"parcel_type":"clothes"}`, "")
			assert.Equal(t, tc.wantStatus, rec.Code)

			var out map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			assert.NotEmpty(t, out["detail"])
		})
	}
}

func TestCreateParcelRejectsBadJSON(t *testing.T) {
	t.Parallel()

	f := newFixture()
	rec := f.do(http.MethodPost, "/parcels", `{"name":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, f.registrations.received)
}

func TestGetMyParsesFilters(t *testing.T) {
	t.Parallel()

	f := newFixture()
	rec := f.do(http.MethodGet, "/parcels/my?parcel_type_id=2&has_delivery_cost=true&skip=20&limit=5", "", "sid-9")
	require.Equal(t, http.StatusOK, rec.Code)

	p := f.parcels.lastParams
	require.NotNil(t, p)
	assert.Equal(t, "sid-9", p.SessionID)
	require.NotNil(t, p.ParcelTypeID)
	assert.Equal(t, 2, *p.ParcelTypeID)
	require.NotNil(t, p.HasDeliveryCost)
	assert.True(t, *p.HasDeliveryCost)
	assert.Equal(t, 20, p.Offset)
	assert.Equal(t, 5, p.Limit)
}

func TestGetMyDefaultsAndBounds(t *testing.T) {
	t.Parallel()

	f := newFixture()

	// No filters: default page size, no type or cost constraint.
	rec := f.do(http.MethodGet, "/parcels/my", "", "sid-9")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, f.parcels.lastParams.Limit)
	assert.Nil(t, f.parcels.lastParams.ParcelTypeID)
	assert.Nil(t, f.parcels.lastParams.HasDeliveryCost)

	// A limit beyond the maximum falls back to the default.
	rec = f.do(http.MethodGet, "/parcels/my?limit=5000", "", "sid-9")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, f.parcels.lastParams.Limit)
}

func TestGetMyRejectsMalformedFilters(t *testing.T) {
	t.Parallel()

	f := newFixture()

	rec := f.do(http.MethodGet, "/parcels/my?parcel_type_id=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/parcels/my?has_delivery_cost=maybe", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetByID(t *testing.T) {
	t.Parallel()

	f := newFixture()
	cost := int64(96750)
	id := uuid.New()
	f.parcels.byID[id] = parcel.Parcel{
		ID:                id,
		Name:              "books",
		Weight:            1.5,
		ContentValueCents: 1000,
		DeliveryCostCents: &cost,
		ParcelTypeName:    "clothes",
	}

	rec := f.do(http.MethodGet, "/parcels/"+id.String(), "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out parcelOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, id.String(), out.ID)
	assert.Equal(t, "clothes", out.ParcelType)
	require.NotNil(t, out.DeliveryCostCents)
	assert.Equal(t, cost, *out.DeliveryCostCents)
}

func TestGetByIDNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture()

	rec := f.do(http.MethodGet, "/parcels/"+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// A non-uuid path segment is indistinguishable from a missing parcel.
	rec = f.do(http.MethodGet, "/parcels/not-a-uuid", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTypes(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.types.all = []parceltype.ParcelType{
		{ID: 1, Name: "clothes"},
		{ID: 2, Name: "electronics"},
		{ID: 3, Name: "others"},
	}

	rec := f.do(http.MethodGet, "/parcel_types", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []parcelTypeOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 3)
	assert.Equal(t, "clothes", out[0].Name)
}

func TestCreateType(t *testing.T) {
	t.Parallel()

	f := newFixture()

	rec := f.do(http.MethodPost, "/parcel_types", `{"name":"fragile"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out parcelTypeOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "fragile", out.Name)

	rec = f.do(http.MethodPost, "/parcel_types", `{"name":""}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/parcel_types", `{"name":"`+strings.Repeat("x", 51)+`"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
