package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrInvalidConfig is wrapped by every configuration validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// MaxTableBits bounds the widths that size a table as 2^bits entries.
const MaxTableBits = 28

// MaxHistoryBits is the widest global history the register can hold.
const MaxHistoryBits = 32

// DefaultPerceptronHistoryBits is the global history length used by the
// perceptron when none is given.
const DefaultPerceptronHistoryBits = 15

// Strategy selects the prediction scheme. It is fixed for the lifetime of a
// Predictor.
type Strategy int

// Supported strategies.
const (
	StrategyStatic Strategy = iota
	StrategyGshare
	StrategyTournament
	StrategyCustom
)

var strategyNames = [...]string{"Static", "Gshare", "Tournament", "Custom"}

func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("Strategy(%d)", int(s))
	}

	return strategyNames[s]
}

// ParseStrategy converts a strategy name to a Strategy. Names are matched
// case-insensitively and "perceptron" is accepted for StrategyCustom.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "static":
		return StrategyStatic, nil
	case "gshare":
		return StrategyGshare, nil
	case "tournament":
		return StrategyTournament, nil
	case "custom", "perceptron":
		return StrategyCustom, nil
	}

	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(strategyNames) {
		return nil, fmt.Errorf("%w: unknown strategy %d", ErrInvalidConfig, int(s))
	}

	return []byte(strings.ToLower(s.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// Config holds the predictor configuration.
type Config struct {
	// Strategy is the prediction scheme.
	Strategy Strategy `json:"strategy"`

	// GlobalHistoryBits is the global history length G. Gshare and tournament
	// size their global tables as 2^G entries; the perceptron uses G weights
	// per row.
	GlobalHistoryBits int `json:"ghistory_bits"`

	// LocalHistoryBits is the local history length L. Tournament only.
	LocalHistoryBits int `json:"lhistory_bits"`

	// PCIndexBits is the number of address bits P indexing the local history
	// table. Tournament only.
	PCIndexBits int `json:"pc_index_bits"`
}

// DefaultConfig returns the configuration the simulator starts from when
// nothing is specified.
func DefaultConfig() Config {
	return Config{
		Strategy:          StrategyStatic,
		GlobalHistoryBits: 14,
		LocalHistoryBits:  10,
		PCIndexBits:       10,
	}
}

// Validate checks that every width the selected strategy needs is set and in
// range.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyStatic:
		return nil
	case StrategyGshare:
		return checkBits("ghistory_bits", c.GlobalHistoryBits, MaxTableBits)
	case StrategyTournament:
		if err := checkBits("ghistory_bits", c.GlobalHistoryBits, MaxTableBits); err != nil {
			return err
		}
		if err := checkBits("lhistory_bits", c.LocalHistoryBits, MaxTableBits); err != nil {
			return err
		}
		return checkBits("pc_index_bits", c.PCIndexBits, MaxTableBits)
	case StrategyCustom:
		return checkBits("ghistory_bits", c.GlobalHistoryBits, MaxHistoryBits)
	default:
		return fmt.Errorf("%w: unknown strategy %d", ErrInvalidConfig, int(c.Strategy))
	}
}

func checkBits(name string, bits, limit int) error {
	if bits <= 0 {
		return fmt.Errorf("%w: %s must be > 0, got %d", ErrInvalidConfig, name, bits)
	}
	if bits > limit {
		return fmt.Errorf("%w: %s must be <= %d, got %d", ErrInvalidConfig, name, limit, bits)
	}
	return nil
}

// String renders the configuration in the compact form accepted by
// ParseSpec.
func (c Config) String() string {
	switch c.Strategy {
	case StrategyGshare:
		return fmt.Sprintf("gshare:%d", c.GlobalHistoryBits)
	case StrategyTournament:
		return fmt.Sprintf("tournament:%d:%d:%d",
			c.GlobalHistoryBits, c.LocalHistoryBits, c.PCIndexBits)
	case StrategyCustom:
		return fmt.Sprintf("custom:%d", c.GlobalHistoryBits)
	default:
		return strings.ToLower(c.Strategy.String())
	}
}

// ParseSpec parses a compact predictor description such as "static",
// "gshare:13", "tournament:9:10:10" or "custom". Leading dashes are ignored,
// so the command-line form "--gshare:13" is accepted too. The result is
// validated.
func ParseSpec(spec string) (Config, error) {
	fields := strings.Split(strings.TrimLeft(strings.TrimSpace(spec), "-"), ":")

	strategy, err := ParseStrategy(fields[0])
	if err != nil {
		return Config{}, err
	}

	widths := make([]int, 0, len(fields)-1)
	for _, f := range fields[1:] {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Config{}, fmt.Errorf("%w: bad width %q in %q", ErrInvalidConfig, f, spec)
		}
		widths = append(widths, n)
	}

	config := Config{Strategy: strategy}

	switch strategy {
	case StrategyStatic:
		err = expectWidths(spec, widths, 0)
	case StrategyGshare:
		err = expectWidths(spec, widths, 1)
		if err == nil {
			config.GlobalHistoryBits = widths[0]
		}
	case StrategyTournament:
		err = expectWidths(spec, widths, 3)
		if err == nil {
			config.GlobalHistoryBits = widths[0]
			config.LocalHistoryBits = widths[1]
			config.PCIndexBits = widths[2]
		}
	case StrategyCustom:
		config.GlobalHistoryBits = DefaultPerceptronHistoryBits
		if len(widths) > 0 {
			err = expectWidths(spec, widths, 1)
			if err == nil {
				config.GlobalHistoryBits = widths[0]
			}
		}
	}

	if err != nil {
		return Config{}, err
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func expectWidths(spec string, widths []int, n int) error {
	if len(widths) != n {
		return fmt.Errorf("%w: %q needs %d width(s), got %d",
			ErrInvalidConfig, spec, n, len(widths))
	}
	return nil
}

// LoadConfig loads a Config from a JSON file. Fields absent from the file
// keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read predictor config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse predictor config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize predictor config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write predictor config file: %w", err)
	}

	return nil
}
