package restart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
	"github.com/google/uuid"
)

// Snapshot is the solver state needed to continue a run
type Snapshot struct {
	RunID string    `json:"RunID"`
	Time  float64   `json:"Time"`
	Step  int       `json:"Step"`
	K     int       `json:"K"`
	Nb    int       `json:"Nb"`
	Ns    int       `json:"Ns"`
	U     []float64 `json:"U"`
}

func NewRunID() string { return uuid.NewString() }

func (s *Snapshot) Validate() error {
	if _, err := uuid.Parse(s.RunID); err != nil {
		return fmt.Errorf("snapshot run id %q: %w", s.RunID, err)
	}
	if len(s.U) != s.K*s.Nb*s.Ns {
		return fmt.Errorf("snapshot holds %d values for shape [%d,%d,%d]", len(s.U), s.K, s.Nb, s.Ns)
	}
	return nil
}

type Store interface {
	Save(ctx context.Context, s *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}

// FileStore keeps the latest snapshot as a YAML file, replaced atomically on each save
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

func (fs *FileStore) Save(ctx context.Context, s *Snapshot) (err error) {
	if err = ctx.Err(); err != nil {
		return
	}
	if err = s.Validate(); err != nil {
		return
	}
	var data []byte
	if data, err = yaml.Marshal(s); err != nil {
		return
	}
	tmp, err := os.CreateTemp(filepath.Dir(fs.Path), filepath.Base(fs.Path)+".*")
	if err != nil {
		return
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return
	}
	if err = tmp.Close(); err != nil {
		return
	}
	return os.Rename(tmp.Name(), fs.Path)
}

func (fs *FileStore) Load(ctx context.Context) (s *Snapshot, err error) {
	if err = ctx.Err(); err != nil {
		return
	}
	var data []byte
	if data, err = os.ReadFile(fs.Path); err != nil {
		return
	}
	s = &Snapshot{}
	if err = yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("restart file %s: %w", fs.Path, err)
	}
	if err = s.Validate(); err != nil {
		return nil, fmt.Errorf("restart file %s: %w", fs.Path, err)
	}
	return
}
