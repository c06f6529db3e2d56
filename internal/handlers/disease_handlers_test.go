package handlers_test

import (
	"net/http"
	"testing"

	"github.com/01moynul/agritech-golang/internal/diagnosis"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/01moynul/agritech-golang/internal/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDisease(t *testing.T) {
	e := newEnv(t)
	sid := e.login(t, e.user(t, "farmer@example.com", models.UserFarmer))
	plant := "Tomato"
	e.vision.assessment = &vision.Assessment{
		PlantName:          &plant,
		HealthyProbability: 0.2,
		Diseases: []vision.Disease{
			{Name: "Early blight", Probability: 0.8},
			{Name: "Leaf mold", Probability: 0.3},
		},
	}

	w := e.upload(t, "/detect-disease", sid, []formFile{
		{field: "images", name: "leaf.png", data: pngBytes},
		{field: "images", name: "notes.txt", data: []byte("not an image")},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[diagnosis.Report](t, w)

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.False(t, res.Healthy)
	require.Len(t, res.Diseases, 1)
	assert.Equal(t, "Early blight", res.Diseases[0].Name)
	assert.Equal(t, "- treat Early blight on Tomato", res.Diseases[0].Prevention)
	assert.Equal(t, []string{"Invalid file: notes.txt"}, report.Errors)
	assert.NotEmpty(t, report.ScanID)

	w = e.do(http.MethodGet, "/scans", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.DiseaseScan](t, w), 1)
}

func TestDetectDisease_Limits(t *testing.T) {
	e := newEnv(t)
	sid := e.login(t, e.user(t, "farmer@example.com", models.UserFarmer))

	var six []formFile
	for range 6 {
		six = append(six, formFile{field: "images", name: "leaf.png", data: pngBytes})
	}
	w := e.upload(t, "/detect-disease", sid, six, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Maximum 5 images allowed", errorOf(t, w))

	w = e.upload(t, "/detect-disease", sid, []formFile{
		{field: "images", name: "a.txt", data: []byte("text")},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "No valid results", body["error"])
	assert.NotEmpty(t, body["errors"])
}

func TestUpdatePlantName(t *testing.T) {
	e := newEnv(t)
	sid := e.login(t, e.user(t, "farmer@example.com", models.UserFarmer))

	w := e.do(http.MethodPost, "/update-plant-name", sid, map[string]any{"plant_name": "Chilli", "disease_name": "Anthracnose"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "- treat Anthracnose on Chilli", decode[map[string]string](t, w)["prevention"])

	w = e.do(http.MethodPost, "/update-plant-name", sid, map[string]any{"plant_name": "Chilli"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Plant name and disease name required", errorOf(t, w))
}

func TestSubmitFeedback(t *testing.T) {
	e := newEnv(t)
	sid := e.login(t, e.user(t, "farmer@example.com", models.UserFarmer))

	w := e.do(http.MethodPost, "/feedback", sid, map[string]any{"rating": 4, "comment": "Spot on"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/feedback", sid, map[string]any{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
