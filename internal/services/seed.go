package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/steelsid0609/training-rcf/internal/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Seed is the reference data loaded by rcfctl seed
type Seed struct {
	Slots    []SlotInput             `yaml:"slots"`
	Colleges []models.CollegeDetails `yaml:"colleges"`
}

// SeedResult counts what a seed run created and skipped
type SeedResult struct {
	SlotsCreated    int `json:"slotsCreated"`
	SlotsSkipped    int `json:"slotsSkipped"`
	CollegesCreated int `json:"collegesCreated"`
	CollegesSkipped int `json:"collegesSkipped"`
}

// LoadSeed decodes a YAML seed document. Unknown keys are rejected.
func LoadSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, fmt.Errorf("%w: seed: %v", ErrInvalid, err)
	}
	return &seed, nil
}

// ApplySeed creates the seed's slots and master colleges. Slots with an existing
// label and start date and colleges with an existing name are skipped, so a seed can be rerun.
func ApplySeed(ctx context.Context, db *gorm.DB, seed *Seed, log *logrus.Entry) (SeedResult, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	var res SeedResult

	for _, in := range seed.Slots {
		if err := in.validate(); err != nil {
			return res, err
		}
		var n int64
		err := db.WithContext(ctx).Model(&models.TrainingSlot{}).
			Where("label = ? AND start_date = ?", in.Label, in.StartDate).
			Count(&n).Error
		if err != nil {
			return res, err
		}
		if n > 0 {
			res.SlotsSkipped++
			continue
		}
		if _, err := CreateSlot(ctx, db, in); err != nil {
			return res, err
		}
		res.SlotsCreated++
	}

	for _, details := range seed.Colleges {
		_, err := CreateCollege(ctx, db, details)
		switch {
		case errors.Is(err, ErrDuplicate):
			res.CollegesSkipped++
		case err != nil:
			return res, err
		default:
			res.CollegesCreated++
		}
	}

	log.WithFields(logrus.Fields{
		"slots_created":    res.SlotsCreated,
		"slots_skipped":    res.SlotsSkipped,
		"colleges_created": res.CollegesCreated,
		"colleges_skipped": res.CollegesSkipped,
	}).Info("seed applied")
	return res, nil
}
