package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"neuronet/internal/model"
)

const (
	runIndexFile = "run_index.json"
	configFile   = "config.json"
	summaryFile  = "summary.json"
	stepsFile    = "steps.csv"
	spikesFile   = "spikes.csv"
)

var stepsHeader = []string{"step", "start_tick", "end_tick", "spikes", "window", "action", "reward", "done"}
var spikesHeader = []string{"tick", "neuron", "amplitude"}

// RunArtifacts is everything written for one run. Config is serialised as
// given, usually the sandbox config the run was built from.
type RunArtifacts struct {
	Run    model.RunRecord
	Config any
	Steps  []model.StepRecord
	Spikes []model.SpikeRecord
}

type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	Environment  string  `json:"environment"`
	Encoder      string  `json:"encoder"`
	Decoder      string  `json:"decoder"`
	State        string  `json:"state"`
	Steps        int     `json:"steps"`
	TotalReward  float64 `json:"total_reward"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if artifacts.Config != nil {
		if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
			return "", err
		}
	}
	summary := artifacts.Run
	summary.Config = nil
	if err := writeJSON(filepath.Join(runDir, summaryFile), summary); err != nil {
		return "", err
	}
	if err := WriteSteps(runDir, artifacts.Steps); err != nil {
		return "", err
	}
	if err := WriteSpikes(runDir, artifacts.Spikes); err != nil {
		return "", err
	}
	return runDir, nil
}

func WriteSteps(runDir string, steps []model.StepRecord) error {
	rows := make([][]string, 0, len(steps))
	for _, s := range steps {
		rows = append(rows, []string{
			strconv.Itoa(s.Step),
			strconv.FormatUint(s.StartTick, 10),
			strconv.FormatUint(s.EndTick, 10),
			strconv.Itoa(s.Spikes),
			strconv.Itoa(s.Window),
			s.Action,
			strconv.FormatFloat(s.Reward, 'f', -1, 64),
			strconv.FormatBool(s.Done),
		})
	}
	return writeCSV(filepath.Join(runDir, stepsFile), stepsHeader, rows)
}

func WriteSpikes(runDir string, spikes []model.SpikeRecord) error {
	rows := make([][]string, 0, len(spikes))
	for _, s := range spikes {
		rows = append(rows, []string{
			strconv.FormatUint(s.Tick, 10),
			strconv.Itoa(s.Neuron),
			strconv.FormatFloat(s.Amplitude, 'f', -1, 64),
		})
	}
	return writeCSV(filepath.Join(runDir, spikesFile), spikesHeader, rows)
}

// ReadSpikes loads spikes.csv for a run. The bool is false when the run has
// no artifacts.
func ReadSpikes(baseDir, runID string) ([]model.SpikeRecord, bool, error) {
	records, ok, err := readCSV(filepath.Join(baseDir, runID, spikesFile), len(spikesHeader))
	if err != nil || !ok {
		return nil, ok, err
	}
	spikes := make([]model.SpikeRecord, 0, len(records))
	for i, record := range records {
		tick, err := strconv.ParseUint(record[0], 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("spikes row %d: %w", i+1, err)
		}
		neuron, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, false, fmt.Errorf("spikes row %d: %w", i+1, err)
		}
		amplitude, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, false, fmt.Errorf("spikes row %d: %w", i+1, err)
		}
		spikes = append(spikes, model.SpikeRecord{RunID: runID, Neuron: neuron, Tick: tick, Amplitude: amplitude})
	}
	return spikes, true, nil
}

func ReadSteps(baseDir, runID string) ([]model.StepRecord, bool, error) {
	records, ok, err := readCSV(filepath.Join(baseDir, runID, stepsFile), len(stepsHeader))
	if err != nil || !ok {
		return nil, ok, err
	}
	steps := make([]model.StepRecord, 0, len(records))
	for i, record := range records {
		var (
			s    = model.StepRecord{RunID: runID, Action: record[5]}
			errs [7]error
		)
		s.Step, errs[0] = strconv.Atoi(record[0])
		s.StartTick, errs[1] = strconv.ParseUint(record[1], 10, 64)
		s.EndTick, errs[2] = strconv.ParseUint(record[2], 10, 64)
		s.Spikes, errs[3] = strconv.Atoi(record[3])
		s.Window, errs[4] = strconv.Atoi(record[4])
		s.Reward, errs[5] = strconv.ParseFloat(record[6], 64)
		s.Done, errs[6] = strconv.ParseBool(record[7])
		for _, err := range errs {
			if err != nil {
				return nil, false, fmt.Errorf("steps row %d: %w", i+1, err)
			}
		}
		steps = append(steps, s)
	}
	return steps, true, nil
}

func ReadRunSummary(baseDir, runID string) (model.RunRecord, bool, error) {
	path := filepath.Join(baseDir, runID, summaryFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, false, err
	}
	return run, true, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run directory to outDir. config.json is
// optional; the other files must exist.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{summaryFile, stepsFile, spikesFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	configPath := filepath.Join(src, configFile)
	if _, err := os.Stat(configPath); err == nil {
		if err := copyFile(configPath, filepath.Join(dst, configFile)); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}
	return dst, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

func readCSV(path string, columns int) ([][]string, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = columns
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return [][]string{}, true, nil
		}
		return nil, false, err
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
