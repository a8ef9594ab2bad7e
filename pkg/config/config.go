/*
Package config manages TOML configuration for the decoder, enumerating
every option of spec §6's parameter table.

InitConfig handles automatic config file creation and loading with fallback
to defaults. LoadConfig and SaveConfig provide direct fs access for runtime
changes. LoadConfigWithPriority resolves a config file the way the teacher's
service does: explicit flag path, then a config file alongside the working
directory, then the executable's own directory, then built-in defaults.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/bpbd-project/decoder-core/internal/fsutil"
)

// DefaultFileName is the conventional config file name searched for by
// LoadConfigWithPriority.
const DefaultFileName = "bpbd.toml"

// Params holds every decoder parameter named in spec §6.
type Params struct {
	Decoder DecoderParams `toml:"decoder"`
	RM      RMParams      `toml:"rm"`
	TM      TMParams      `toml:"tm"`
	LM      LMParams      `toml:"lm"`
	Pool    PoolParams    `toml:"pool"`
}

// DecoderParams covers the de_* keys of spec §6.
type DecoderParams struct {
	NumBestTrans          int     `toml:"de_num_best_trans"`
	PruningThreshold      float32 `toml:"de_pruning_threshold"`
	StackCapacity         int     `toml:"de_stack_capacity"`
	MaxSourcePhraseLength int     `toml:"de_max_source_phrase_length"`
	MaxTargetPhraseLength int     `toml:"de_max_target_phrase_length"`
	IsGenLattice          bool    `toml:"de_is_gen_lattice"`
}

// RMParams covers the rm_* keys of spec §6.
type RMParams struct {
	DistortionLimit int        `toml:"rm_dist_lim"`
	LinDistPenalty  float32    `toml:"rm_lin_dist_penalty"`
	FeatureWeights  [6]float32 `toml:"rm_feature_weights"`
}

// TMParams covers the tm_* keys of spec §6, plus the UNK->UNK defaults
// spec §9 leaves to configuration (the de-duplicated server_consts.hpp /
// server_configs.hpp discrepancy).
type TMParams struct {
	WordPenalty    float32    `toml:"tm_word_penalty"`
	PhrasePenalty  float32    `toml:"tm_phrase_penalty"`
	TransLim       int        `toml:"tm_trans_lim"`
	MinTransProb   float32    `toml:"tm_min_trans_prob"`
	FeatureWeights [4]float32 `toml:"tm_feature_weights"`
	UnknownTotal   float32    `toml:"tm_unk_total"`
	UnknownPEF     float32    `toml:"tm_unk_pef"`
}

// LMParams covers the lm_* keys of spec §6.
type LMParams struct {
	Order          int       `toml:"lm_order"`
	FeatureWeights []float32 `toml:"lm_feature_weights"`
}

// PoolParams is added: bounds concurrent decodes (spec §5's "multiple
// sentences decode in parallel on separate worker threads").
type PoolParams struct {
	MaxWorkers int `toml:"max_workers"`
}

// DefaultConfig returns a Params with conservative, documented defaults.
func DefaultConfig() *Params {
	return &Params{
		Decoder: DecoderParams{
			NumBestTrans:          1,
			PruningThreshold:      6.0,
			StackCapacity:         100,
			MaxSourcePhraseLength: 7,
			MaxTargetPhraseLength: 7,
			IsGenLattice:          false,
		},
		RM: RMParams{
			DistortionLimit: 6,
			LinDistPenalty:  0.3,
			FeatureWeights:  [6]float32{1, 1, 1, 1, 1, 1},
		},
		TM: TMParams{
			WordPenalty:    -0.1,
			PhrasePenalty:  -0.3,
			TransLim:       20,
			MinTransProb:   -100,
			FeatureWeights: [4]float32{1, 1, 1, 1},
			UnknownTotal:   -100,
			UnknownPEF:     -100,
		},
		LM: LMParams{
			Order:          5,
			FeatureWeights: []float32{1},
		},
		Pool: PoolParams{
			MaxWorkers: 4,
		},
	}
}

// InitConfig loads config from file or creates a default one if missing.
func InitConfig(configPath string) (*Params, error) {
	configDir := filepath.Dir(configPath)
	if err := fsutil.EnsureDir(configDir); err != nil {
		return nil, err
	}
	if !fsutil.FileExists(configPath) {
		cfg := DefaultConfig()
		if err := SaveConfig(cfg, configPath); err != nil {
			return nil, err
		}
		log.Debugf("Created default config file at: ( %s )", configPath)
		return cfg, nil
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config, using defaults: %v", err)
		return DefaultConfig(), nil
	}
	return cfg, nil
}

// LoadConfig loads Params from a TOML file.
func LoadConfig(configPath string) (*Params, error) {
	var cfg Params
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		log.Errorf("Failed to decode config file: %v", err)
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes cfg to a TOML file.
func SaveConfig(cfg *Params, configPath string) error {
	file, err := os.Create(configPath)
	if err != nil {
		log.Errorf("Failed to create config file: %v", err)
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}

// LoadConfigWithPriority resolves the config file to use: an explicit path
// if given, else DefaultFileName in the working directory, else
// DefaultFileName alongside the executable, else built-in defaults (in
// which case no file is created on disk). It returns the resolved params
// and the path that was used ("" for the defaults-only case).
func LoadConfigWithPriority(explicitPath string) (*Params, string, error) {
	if explicitPath != "" {
		cfg, err := LoadConfig(explicitPath)
		return cfg, explicitPath, err
	}
	if fsutil.FileExists(DefaultFileName) {
		cfg, err := LoadConfig(DefaultFileName)
		return cfg, DefaultFileName, err
	}
	if dir, err := fsutil.GetExecutableDir(); err == nil {
		candidate := filepath.Join(dir, DefaultFileName)
		if fsutil.FileExists(candidate) {
			cfg, err := LoadConfig(candidate)
			return cfg, candidate, err
		}
	}
	log.Debug("No config file found, using built-in defaults")
	return DefaultConfig(), "", nil
}
