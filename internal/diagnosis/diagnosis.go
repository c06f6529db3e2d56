// Package diagnosis turns uploaded leaf photos into disease reports with
// prevention advice.
package diagnosis

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/01moynul/agritech-golang/internal/apperr"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/01moynul/agritech-golang/internal/vision"
	"github.com/gabriel-vasile/mimetype"
)

const (
	MaxImages = 5

	// Only the most likely diseases are reported, and only when the model
	// is reasonably confident.
	maxDiseases    = 2
	minProbability = 0.5
	healthyCutoff  = 0.5
)

// Assessor is implemented by *vision.Client.
type Assessor interface {
	Assess(ctx context.Context, image []byte) (*vision.Assessment, error)
}

// PreventionAdvisor is implemented by *ai.Service.
type PreventionAdvisor interface {
	PreventionMethods(ctx context.Context, disease, plant string) string
}

// ScanStore is implemented by *repository.ScanRepo.
type ScanStore interface {
	SaveScan(ctx context.Context, userID string, results any) (*models.DiseaseScan, error)
}

type Service struct {
	Vision  Assessor
	Advisor PreventionAdvisor
	Scans   ScanStore
}

// Upload is one received image file.
type Upload struct {
	Filename string
	Data     []byte
}

type DiseaseResult struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Prevention  string  `json:"prevention"`
}

type Result struct {
	Filename           string          `json:"filename"`
	PlantName          *string         `json:"plant_name"`
	Healthy            bool            `json:"healthy"`
	HealthyProbability float64         `json:"healthy_probability"`
	Diseases           []DiseaseResult `json:"diseases"`
}

type Report struct {
	ScanID  string   `json:"scan_id,omitempty"`
	Results []Result `json:"results"`
	Errors  []string `json:"errors"`
}

// Detect assesses each upload independently. Per-file failures are listed in
// Report.Errors; the call itself fails only when nothing could be assessed.
func (s *Service) Detect(ctx context.Context, userID string, uploads []Upload) (*Report, error) {
	// 1. --- Validate the batch ---
	if len(uploads) == 0 {
		return nil, apperr.Invalid("images", "At least one image is required")
	}
	if len(uploads) > MaxImages {
		return nil, apperr.Invalid("images", "Maximum %d images allowed", MaxImages)
	}

	report := &Report{Results: []Result{}, Errors: []string{}}
	unavailable := 0

	// 2. --- Assess each image ---
	for _, up := range uploads {
		mt := mimetype.Detect(up.Data)
		if !strings.HasPrefix(mt.String(), "image/") {
			report.Errors = append(report.Errors, fmt.Sprintf("Invalid file: %s", up.Filename))
			continue
		}

		a, err := s.Vision.Assess(ctx, up.Data)
		if err != nil {
			if apperr.IsRetryable(err) {
				unavailable++
			}
			log.Printf("Disease detection failed for %s: %v", up.Filename, err)
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to analyze %s: %s", up.Filename, apperr.Message(err)))
			continue
		}
		report.Results = append(report.Results, s.buildResult(ctx, up.Filename, a))
	}

	// 3. --- Nothing usable ---
	if len(report.Results) == 0 {
		if unavailable > 0 && unavailable == len(report.Errors) {
			return report, apperr.Unavailable("diagnosis.Detect", fmt.Errorf("all %d assessments failed upstream", unavailable))
		}
		return report, apperr.Invalid("images", "No valid results")
	}

	// 4. --- Persist ---
	scan, err := s.Scans.SaveScan(ctx, userID, report.Results)
	if err != nil {
		return nil, apperr.Internal("diagnosis.Detect", err)
	}
	report.ScanID = scan.ID
	return report, nil
}

func (s *Service) buildResult(ctx context.Context, filename string, a *vision.Assessment) Result {
	diseases := append([]vision.Disease(nil), a.Diseases...)
	sort.SliceStable(diseases, func(i, j int) bool {
		return diseases[i].Probability > diseases[j].Probability
	})
	if len(diseases) > maxDiseases {
		diseases = diseases[:maxDiseases]
	}

	plant := "the plant"
	if a.PlantName != nil {
		plant = *a.PlantName
	}

	out := Result{
		Filename:           filename,
		PlantName:          a.PlantName,
		Healthy:            a.HealthyProbability > healthyCutoff,
		HealthyProbability: a.HealthyProbability,
		Diseases:           []DiseaseResult{},
	}
	for _, d := range diseases {
		if d.Probability < minProbability {
			continue
		}
		out.Diseases = append(out.Diseases, DiseaseResult{
			Name:        d.Name,
			Probability: d.Probability,
			Prevention:  s.Advisor.PreventionMethods(ctx, d.Name, plant),
		})
	}
	return out
}

// Prevention returns fresh advice after the user corrected the plant name.
func (s *Service) Prevention(ctx context.Context, plantName, diseaseName string) (string, error) {
	plantName = strings.TrimSpace(plantName)
	diseaseName = strings.TrimSpace(diseaseName)
	if plantName == "" || diseaseName == "" {
		return "", apperr.Invalid("plant_name", "Plant name and disease name required")
	}
	return s.Advisor.PreventionMethods(ctx, diseaseName, plantName), nil
}
