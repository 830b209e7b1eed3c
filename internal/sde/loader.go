package sde

import (
	"archive/zip"
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"eve-starmap/internal/graph"
	"eve-starmap/internal/logger"
	"eve-starmap/internal/mapview"
)

const sdeURL = "https://developers.eveonline.com/static-data/eve-online-static-data-latest-jsonl.zip"

// GalaxyBounds is the X/Z extent of known space in metres. Seeding the map
// with it keeps the framing identical between partial and full SDE loads.
func GalaxyBounds() mapview.Bounds {
	return mapview.Bounds{
		XMin: 0,
		XMax: 336522971264518000,
		ZMin: -484452845697854000,
		ZMax: 472860102256057000,
	}
}

// Data holds all parsed SDE data.
type Data struct {
	Universe       *graph.Universe
	RegionByName   map[string]int32 // lowercase name -> regionID
	Constellations map[int32]string // constellationID -> name
	Gates          int
}

type position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p *position) vec() graph.Vec3 { return graph.Vec3{X: p.X, Y: p.Y, Z: p.Z} }

// Load downloads (if needed) and parses the SDE.
func Load(dataDir string) (*Data, error) {
	zipPath := filepath.Join(dataDir, "sde.zip")
	extractDir := filepath.Join(dataDir, "sde")

	if _, err := os.Stat(extractDir); os.IsNotExist(err) {
		logger.Info("SDE", "Downloading data...")
		if err := downloadFile(zipPath, sdeURL); err != nil {
			return nil, fmt.Errorf("download SDE: %w", err)
		}
		logger.Info("SDE", "Extracting data...")
		if err := extractZip(zipPath, extractDir); err != nil {
			return nil, fmt.Errorf("extract SDE: %w", err)
		}
	}
	return LoadDir(extractDir)
}

// LoadDir parses an already extracted SDE directory.
func LoadDir(dir string) (*Data, error) {
	data := &Data{
		Universe:       graph.NewUniverse(),
		RegionByName:   make(map[string]int32),
		Constellations: make(map[int32]string),
	}

	logger.Info("SDE", "Loading regions...")
	if err := data.loadRegions(dir); err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	logger.Info("SDE", "Loading constellations...")
	if err := data.loadConstellations(dir); err != nil {
		return nil, fmt.Errorf("load constellations: %w", err)
	}
	logger.Info("SDE", "Loading solar systems...")
	if err := data.loadSystems(dir); err != nil {
		return nil, fmt.Errorf("load systems: %w", err)
	}
	logger.Info("SDE", "Loading stargates...")
	if err := data.loadStargates(dir); err != nil {
		return nil, fmt.Errorf("load stargates: %w", err)
	}

	// Regions missing from mapRegions or without a position get their systems' centroid.
	data.Universe.PlaceRegions()

	logger.Section("SDE Statistics")
	logger.Stats("Regions", len(data.Universe.Regions()))
	logger.Stats("Constellations", len(data.Constellations))
	logger.Stats("Systems", len(data.Universe.Systems()))
	logger.Stats("Stargates", data.Gates)
	return data, nil
}

func (d *Data) loadRegions(dir string) error {
	return readJSONL(dir, "mapRegions", func(raw json.RawMessage) error {
		var r struct {
			Key      int32             `json:"_key"`
			Name     map[string]string `json:"name"`
			Position *position         `json:"position"`
		}
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		name := r.Name["en"]
		if name == "" {
			return nil
		}
		region := &graph.Region{ID: r.Key, Name: name}
		if r.Position != nil {
			region.Position = r.Position.vec()
			region.HasPosition = true
		}
		d.Universe.AddRegion(region)
		d.RegionByName[strings.ToLower(name)] = r.Key
		return nil
	})
}

func (d *Data) loadConstellations(dir string) error {
	return readJSONL(dir, "mapConstellations", func(raw json.RawMessage) error {
		var c struct {
			Key  int32             `json:"_key"`
			Name map[string]string `json:"name"`
		}
		if err := json.Unmarshal(raw, &c); err != nil {
			return err
		}
		if name := c.Name["en"]; name != "" {
			d.Constellations[c.Key] = name
		}
		return nil
	})
}

func (d *Data) loadSystems(dir string) error {
	return readJSONL(dir, "mapSolarSystems", func(raw json.RawMessage) error {
		var s struct {
			Key             int32             `json:"_key"`
			Name            map[string]string `json:"name"`
			RegionID        int32             `json:"regionID"`
			ConstellationID int32             `json:"constellationID"`
			Position        *position         `json:"position"`
			Security        float64           `json:"security"`
			SecurityStatus  float64           `json:"securityStatus"` // alternate SDE field name
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		name := s.Name["en"]
		if name == "" || s.Position == nil {
			return nil
		}
		sec := s.Security
		if sec == 0 && s.SecurityStatus != 0 {
			sec = s.SecurityStatus
		}
		d.Universe.AddSystem(&graph.System{
			ID:              s.Key,
			Name:            name,
			Position:        s.Position.vec(),
			RegionID:        s.RegionID,
			ConstellationID: s.ConstellationID,
			Security:        sec,
		})
		if _, ok := d.Universe.Region(s.RegionID); !ok {
			d.Universe.AddRegion(&graph.Region{ID: s.RegionID, Name: fmt.Sprintf("Region %d", s.RegionID)})
		}
		return nil
	})
}

func (d *Data) loadStargates(dir string) error {
	return readJSONL(dir, "mapStargates", func(raw json.RawMessage) error {
		var g struct {
			SolarSystemID int32 `json:"solarSystemID"`
			Destination   struct {
				SolarSystemID int32 `json:"solarSystemID"`
			} `json:"destination"`
		}
		if err := json.Unmarshal(raw, &g); err != nil {
			return err
		}
		if g.SolarSystemID != 0 && g.Destination.SolarSystemID != 0 {
			d.Universe.AddGate(g.SolarSystemID, g.Destination.SolarSystemID)
			d.Gates++
		}
		return nil
	})
}

// readJSONL finds and reads a .jsonl file by base name from the extracted SDE directory.
func readJSONL(dir, baseName string, fn func(json.RawMessage) error) error {
	// Search for the file recursively
	var filePath string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		name := strings.TrimSuffix(info.Name(), ".jsonl")
		if !info.IsDir() && strings.EqualFold(name, baseName) {
			filePath = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil && err != filepath.SkipAll {
		return err
	}
	if filePath == "" {
		logger.Warn("SDE", fmt.Sprintf("File %s.jsonl not found, skipping", baseName))
		return nil
	}

	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	bad := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(json.RawMessage(line)); err != nil {
			bad++
			continue // skip malformed lines
		}
	}
	if bad > 0 {
		logger.Warn("SDE", fmt.Sprintf("%s: skipped %d malformed lines", baseName, bad))
	}
	return scanner.Err()
}

func downloadFile(dst, url string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}

func extractZip(src, dst string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	// Resolve destination to an absolute path for zip slip prevention
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("resolve extract dir: %w", err)
	}

	for _, f := range r.File {
		fpath := filepath.Join(dstAbs, f.Name)

		// Zip slip guard: ensure the resolved path stays within dst
		if rel, err := filepath.Rel(dstAbs, fpath); err != nil || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("illegal zip entry path: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			os.MkdirAll(fpath, 0755)
			continue
		}
		os.MkdirAll(filepath.Dir(fpath), 0755)
		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.Create(fpath)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
