package backups

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"kennelcore/internal/blob"
	"kennelcore/pkg/domain"
)

// ManifestName is the artifact describing a backup.
const ManifestName = "manifest.yaml"

// Manifest is written last; its presence marks a complete backup.
type Manifest struct {
	JobID         string         `yaml:"job_id"`
	SchemaVersion int            `yaml:"schema_version"`
	CreatedAt     time.Time      `yaml:"created_at"`
	RequestedBy   string         `yaml:"requested_by,omitempty"`
	Reason        string         `yaml:"reason,omitempty"`
	Counts        map[string]int `yaml:"counts"`
	Artifacts     []Artifact     `yaml:"artifacts"`
}

type sheet struct {
	name        string
	contentType string
	render      func(domain.Snapshot) ([]byte, int, error)
}

func sheets(payload []byte) []sheet {
	return []sheet{
		{name: "dataset.json", contentType: "application/json", render: func(s domain.Snapshot) ([]byte, int, error) {
			total := 0
			for _, n := range s.Counts() {
				total += n
			}
			return payload, total, nil
		}},
		{name: "dogs.csv", contentType: "text/csv", render: dogsCSV},
		{name: "litters.csv", contentType: "text/csv", render: littersCSV},
		{name: "sales.csv", contentType: "text/csv", render: salesCSV},
	}
}

// write renders every artifact concurrently, stores them and then the
// manifest. A failed backup leaves nothing behind under its prefix.
func (w *Worker) write(ctx context.Context, id string, payload []byte) (artifacts []Artifact, err error) {
	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	job, _ := w.Get(id)
	prefix := job.Prefix()
	defer func() {
		if err != nil {
			w.cleanup(context.WithoutCancel(ctx), prefix)
		}
	}()

	specs := sheets(payload)
	artifacts = make([]Artifact, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			data, rows, err := spec.render(snapshot)
			if err != nil {
				return fmt.Errorf("render %s: %w", spec.name, err)
			}
			art, err := w.put(gctx, prefix+spec.name, spec.contentType, data)
			if err != nil {
				return err
			}
			art.Name = spec.name
			art.Rows = rows
			artifacts[i] = art
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for entity, n := range snapshot.Counts() {
		counts[string(entity)] = n
	}
	manifest, err := yaml.Marshal(Manifest{
		JobID:         id,
		SchemaVersion: snapshot.SchemaVersion,
		CreatedAt:     job.CreatedAt,
		RequestedBy:   job.RequestedBy,
		Reason:        job.Reason,
		Counts:        counts,
		Artifacts:     artifacts,
	})
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	art, err := w.put(ctx, prefix+ManifestName, "application/yaml", manifest)
	if err != nil {
		return nil, err
	}
	art.Name = ManifestName
	return append(artifacts, art), nil
}

func (w *Worker) put(ctx context.Context, key, contentType string, data []byte) (Artifact, error) {
	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])
	info, err := w.store.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"sha256": checksum},
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("store %s: %w", path.Base(key), err)
	}
	return Artifact{
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		SHA256:      checksum,
		CreatedAt:   info.LastModified,
	}, nil
}

func (w *Worker) cleanup(ctx context.Context, prefix string) {
	infos, err := w.store.List(ctx, prefix)
	if err != nil {
		w.logger.Warn("list partial backup failed", "prefix", prefix, "error", err)
		return
	}
	for _, info := range infos {
		if _, err := w.store.Delete(ctx, info.Key); err != nil {
			w.logger.Warn("delete partial backup failed", "key", info.Key, "error", err)
		}
	}
}

// ReadManifest loads the manifest of a stored backup.
func ReadManifest(ctx context.Context, store blob.Store, jobID string) (Manifest, error) {
	_, rc, err := store.Get(ctx, path.Join(KeyPrefix, jobID, ManifestName))
	if err != nil {
		return Manifest{}, err
	}
	defer rc.Close()
	var m Manifest
	if err := yaml.NewDecoder(rc).Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

func sorted[T any](m map[string]T, less func(a, b T) bool) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func writeCSV(header []string, rows [][]string) ([]byte, int, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(header); err != nil {
		return nil, 0, err
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), len(rows), nil
}

func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func dogsCSV(s domain.Snapshot) ([]byte, int, error) {
	dogs := sorted(s.Dogs, func(a, b domain.Dog) bool {
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	rows := make([][]string, len(dogs))
	for i, d := range dogs {
		rows[i] = []string{
			d.ID, d.Name, d.RegisteredName, d.Breed, string(d.Sex), date(d.DateOfBirth),
			string(d.Status), d.Microchip, str(d.SireID), str(d.DamID), str(d.LitterID),
		}
	}
	return writeCSV([]string{
		"id", "name", "registered_name", "breed", "sex", "date_of_birth",
		"status", "microchip", "sire_id", "dam_id", "litter_id",
	}, rows)
}

func littersCSV(s domain.Snapshot) ([]byte, int, error) {
	puppies := make(map[string]int)
	for _, d := range s.Dogs {
		if d.LitterID != nil {
			puppies[*d.LitterID]++
		}
	}
	litters := sorted(s.Litters, func(a, b domain.Litter) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	rows := make([][]string, len(litters))
	for i, l := range litters {
		rows[i] = []string{
			l.ID, l.Name, str(l.SireID), str(l.DamID), string(l.Status),
			date(l.BreedingDate), date(l.DueDate), date(l.WhelpDate), fmt.Sprint(puppies[l.ID]),
		}
	}
	return writeCSV([]string{
		"id", "name", "sire_id", "dam_id", "status", "breeding_date", "due_date", "whelp_date", "puppies",
	}, rows)
}

func salesCSV(s domain.Snapshot) ([]byte, int, error) {
	lines := make(map[string][]string)
	for _, sp := range s.SalePuppies {
		lines[sp.SaleID] = append(lines[sp.SaleID], sp.DogID)
	}
	sales := sorted(s.Sales, func(a, b domain.Sale) bool {
		if a.SaleDate.Equal(b.SaleDate) {
			return a.ID < b.ID
		}
		return a.SaleDate.Before(b.SaleDate)
	})
	rows := make([][]string, len(sales))
	for i, sale := range sales {
		dogs := lines[sale.ID]
		sort.Strings(dogs)
		rows[i] = []string{
			sale.ID, str(sale.ClientID), sale.ClientName, sale.SaleDate.Format(time.DateOnly),
			sale.Price.StringFixed(2), string(sale.Status), string(sale.PaymentStatus), strings.Join(dogs, ";"),
		}
	}
	return writeCSV([]string{
		"id", "client_id", "client_name", "sale_date", "price", "status", "payment_status", "dog_ids",
	}, rows)
}
