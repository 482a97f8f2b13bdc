package storage

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bidwise/bidwise/internal/models"
)

//go:embed seed/demo.yaml
var demoSeed []byte

// Seed is the initial content of a development database.
type Seed struct {
	Projects []models.Project         `yaml:"projects"`
	Bids     []models.Bid             `yaml:"bids"`
	Traffic  []models.TrafficPoint    `yaml:"traffic"`
	Progress []models.ProjectProgress `yaml:"progress"`
}

// DemoSeed returns the built-in demonstration data set.
func DemoSeed() (Seed, error) {
	return ParseSeed(demoSeed)
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes YAML seed data and checks its references.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parsing seed: %w", err)
	}
	if err := seed.validate(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

func (sd Seed) validate() error {
	names := make(map[string]bool, len(sd.Projects))
	for i, p := range sd.Projects {
		if p.Name == "" {
			return fmt.Errorf("seed project %d: missing name", i)
		}
		if names[p.Name] {
			return fmt.Errorf("seed project %q: duplicate name", p.Name)
		}
		names[p.Name] = true
	}
	for _, b := range sd.Bids {
		if !names[b.ProjectID] {
			return fmt.Errorf("seed bid %q: unknown project %q", b.BidID, b.ProjectID)
		}
	}
	for _, p := range sd.Progress {
		if !names[p.Project] {
			return fmt.Errorf("seed progress: unknown project %q", p.Project)
		}
	}
	return nil
}

// ApplySeed writes sd in a single transaction. Any existing project with
// the same name aborts the whole seed with ErrConflict.
func (s *Store) ApplySeed(sd Seed) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range sd.Projects {
		if err := insertProject(tx, p); err != nil {
			return err
		}
	}
	for _, b := range sd.Bids {
		if _, err := saveBid(tx, b); err != nil {
			return err
		}
	}
	for _, p := range sd.Traffic {
		if err := appendTraffic(tx, p); err != nil {
			return err
		}
	}
	for _, p := range sd.Progress {
		if err := saveProgress(tx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}
