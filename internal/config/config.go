// Package config loads and validates the JSON configuration file: the
// capture source, the tracked color ranges, the two players, and the
// tracker, lock, game and results settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/dberml/rpsduel/internal/lock"
	"github.com/dberml/rpsduel/internal/tracker"
)

// Config is the parsed configuration file.
type Config struct {
	Camera  CameraConfig           `json:"camera"`
	Colors  map[string]ColorConfig `json:"colors"`
	Players []string               `json:"players"`
	Tracker TrackerConfig          `json:"tracker"`
	Lock    LockConfig             `json:"lock"`
	Game    GameConfig             `json:"game"`
	Results ResultsConfig          `json:"results"`
}

// CameraConfig selects and calibrates the capture source.
type CameraConfig struct {
	// Source is a device index ("0") or a stream URL.
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	// Intrinsics is the row-major 3x3 camera matrix; empty disables
	// undistortion. Distortion holds the k1 k2 p1 p2 [k3] coefficients.
	Intrinsics []float64 `json:"intrinsics,omitempty"`
	Distortion []float64 `json:"distortion,omitempty"`
	Alpha      float64   `json:"alpha"`
}

// ColorConfig is one tracked color: its HSV bounds and an optional
// display color for charts and overlays.
type ColorConfig struct {
	// Lower and Upper define a single HSV range; Ranges lists several
	// (hue wrap-around colors like red need two). Exactly one of the two
	// forms must be used.
	Lower  []float64    `json:"lower,omitempty"`
	Upper  []float64    `json:"upper,omitempty"`
	Ranges []RangeBound `json:"ranges,omitempty"`
	// Display is a hex color like "#1f77b4".
	Display string `json:"display,omitempty"`
}

// RangeBound is one HSV interval.
type RangeBound struct {
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// TrackerConfig overrides tracker tuning; zero values keep the defaults.
type TrackerConfig struct {
	MinAreaDetect  float64 `json:"min_area_detect"`
	MinAreaROI     float64 `json:"min_area_roi"`
	MaskKernel     int     `json:"mask_kernel"`
	MaskIterations int     `json:"mask_iterations"`
	ROIPad         int     `json:"roi_pad"`
	SmootherLen    int     `json:"smoother_len"`
	KalmanDT       float64 `json:"kalman_dt"`
	KalmanQ        float64 `json:"kalman_q"`
	KalmanR        float64 `json:"kalman_r"`
	DefectAngleDeg float64 `json:"defect_angle_deg"`
	DefectDepth    float64 `json:"defect_depth"`
}

// LockConfig configures the gesture sequence lock. Steps and the confirm
// pair are gesture-name pairs like ["ROCK","SCISSORS"].
type LockConfig struct {
	Enabled          bool        `json:"enabled"`
	Steps            [][2]string `json:"steps,omitempty"`
	ConfirmPair      *[2]string  `json:"confirm_pair,omitempty"`
	StableFrames     int         `json:"stable_frames"`
	SettleFrames     int         `json:"settle_frames"`
	WrongFlashFrames int         `json:"wrong_flash_frames"`
	TimeoutSeconds   float64     `json:"timeout_seconds"`
}

// GameConfig tunes the round loop.
type GameConfig struct {
	HideFrames       int     `json:"hide_frames"`
	StableFrames     int     `json:"stable_frames"`
	RoundTimeoutSec  float64 `json:"round_timeout_seconds"`
	CountdownStepSec float64 `json:"countdown_step_seconds"`
	MaxRounds        int     `json:"max_rounds"`
}

// ResultsConfig configures persistence and the results server.
type ResultsConfig struct {
	DBPath     string `json:"db_path"`
	ListenAddr string `json:"listen_addr"`
	StaticDir  string `json:"static_dir,omitempty"`
}

// Default returns a runnable configuration with no colors; callers must
// still supply colors and players.
func Default() Config {
	return Config{
		Camera: CameraConfig{Source: "0", Width: 1280, Height: 720},
		Results: ResultsConfig{
			DBPath:     "rpsduel.db",
			ListenAddr: ":8080",
		},
	}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration invariants. Color bounds must be
// component-wise within 0..255 with lower <= upper, players must name
// configured colors, and at least two players are required.
func (c *Config) Validate() error {
	if len(c.Colors) == 0 {
		return errors.New("config: no colors configured")
	}
	if len(c.Players) < 2 {
		return errors.New("config: at least two players are required")
	}
	if c.Players[0] == c.Players[1] {
		return errors.New("config: players must be distinct")
	}
	for _, p := range c.Players {
		if _, ok := c.Colors[p]; !ok {
			return fmt.Errorf("config: player %q has no color entry", p)
		}
	}

	for name, cc := range c.Colors {
		ranges, err := cc.bounds()
		if err != nil {
			return fmt.Errorf("config: color %q: %w", name, err)
		}
		for i, r := range ranges {
			if err := checkBound(r.Lower, r.Upper); err != nil {
				return fmt.Errorf("config: color %q range %d: %w", name, i, err)
			}
		}
		if cc.Display != "" {
			if _, err := colorful.Hex(cc.Display); err != nil {
				return fmt.Errorf("config: color %q: bad display color %q", name, cc.Display)
			}
		}
	}

	if len(c.Camera.Intrinsics) > 0 && len(c.Camera.Intrinsics) != 9 {
		return errors.New("config: camera intrinsics must have 9 elements")
	}
	if len(c.Camera.Intrinsics) > 0 && len(c.Camera.Distortion) < 4 {
		return errors.New("config: camera distortion needs at least 4 coefficients")
	}

	if _, err := c.LockConfig(); err != nil {
		return err
	}
	return nil
}

// bounds normalizes the single-range and multi-range forms.
func (cc ColorConfig) bounds() ([]RangeBound, error) {
	single := len(cc.Lower) > 0 || len(cc.Upper) > 0
	if single && len(cc.Ranges) > 0 {
		return nil, errors.New("use either lower/upper or ranges, not both")
	}
	if single {
		return []RangeBound{{Lower: cc.Lower, Upper: cc.Upper}}, nil
	}
	if len(cc.Ranges) == 0 {
		return nil, errors.New("no HSV bounds")
	}
	return cc.Ranges, nil
}

func checkBound(lower, upper []float64) error {
	if len(lower) != 3 || len(upper) != 3 {
		return errors.New("bounds must have 3 components")
	}
	for i := 0; i < 3; i++ {
		if lower[i] < 0 || lower[i] > 255 || upper[i] < 0 || upper[i] > 255 {
			return errors.New("components must be within 0..255")
		}
		if lower[i] > upper[i] {
			return errors.New("lower bound exceeds upper bound")
		}
	}
	return nil
}

// ColorSpecs converts the color map to tracker specs, players first so
// the tracker's configured order is stable and player-led.
func (c *Config) ColorSpecs() []tracker.ColorSpec {
	seen := map[string]bool{}
	var order []string
	for _, p := range c.Players {
		if !seen[p] {
			order = append(order, p)
			seen[p] = true
		}
	}
	// Remaining colors in sorted order for determinism.
	var rest []string
	for name := range c.Colors {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	for i := 0; i < len(rest); i++ {
		for j := i + 1; j < len(rest); j++ {
			if rest[j] < rest[i] {
				rest[i], rest[j] = rest[j], rest[i]
			}
		}
	}
	order = append(order, rest...)

	specs := make([]tracker.ColorSpec, 0, len(order))
	for _, name := range order {
		cc := c.Colors[name]
		ranges, _ := cc.bounds()
		spec := tracker.ColorSpec{Name: name}
		for _, r := range ranges {
			spec.Ranges = append(spec.Ranges, tracker.HSVRange{
				Lower: [3]float64{r.Lower[0], r.Lower[1], r.Lower[2]},
				Upper: [3]float64{r.Upper[0], r.Upper[1], r.Upper[2]},
			})
		}
		specs = append(specs, spec)
	}
	return specs
}

// TrackerParams returns the tracker parameters with zero-valued fields
// replaced by defaults.
func (c *Config) TrackerParams() tracker.Params {
	p := tracker.DefaultParams()
	t := c.Tracker
	if t.MinAreaDetect > 0 {
		p.MinAreaDetect = t.MinAreaDetect
	}
	if t.MinAreaROI > 0 {
		p.MinAreaROI = t.MinAreaROI
	}
	if t.MaskKernel > 0 {
		p.MaskKernel = t.MaskKernel
	}
	if t.MaskIterations > 0 {
		p.MaskIterations = t.MaskIterations
	}
	if t.ROIPad > 0 {
		p.ROIPad = t.ROIPad
	}
	if t.SmootherLen > 0 {
		p.SmootherLen = t.SmootherLen
	}
	if t.KalmanDT > 0 {
		p.KalmanDT = t.KalmanDT
	}
	if t.KalmanQ > 0 {
		p.KalmanQ = t.KalmanQ
	}
	if t.KalmanR > 0 {
		p.KalmanR = t.KalmanR
	}
	if t.DefectAngleDeg > 0 {
		p.DefectAngleDeg = t.DefectAngleDeg
	}
	if t.DefectDepth > 0 {
		p.DefectDepth = t.DefectDepth
	}
	return p
}

// LockConfig converts the lock section, parsing gesture names.
func (c *Config) LockConfig() (lock.Config, error) {
	lc := lock.DefaultConfig()

	if c.Lock.ConfirmPair != nil {
		pair, err := parsePair(*c.Lock.ConfirmPair)
		if err != nil {
			return lc, fmt.Errorf("config: lock confirm pair: %w", err)
		}
		lc.ConfirmPair = pair
	}
	for i, step := range c.Lock.Steps {
		pair, err := parsePair(step)
		if err != nil {
			return lc, fmt.Errorf("config: lock step %d: %w", i, err)
		}
		lc.Steps = append(lc.Steps, pair)
	}
	if c.Lock.StableFrames > 0 {
		lc.StableFrames = c.Lock.StableFrames
	}
	if c.Lock.SettleFrames > 0 {
		lc.SettleFrames = c.Lock.SettleFrames
	}
	if c.Lock.WrongFlashFrames > 0 {
		lc.WrongFlashFrames = c.Lock.WrongFlashFrames
	}
	if c.Lock.TimeoutSeconds > 0 {
		lc.Timeout = time.Duration(c.Lock.TimeoutSeconds * float64(time.Second))
	}
	return lc, nil
}

func parsePair(names [2]string) (lock.Pair, error) {
	a, err := tracker.ParseGesture(names[0])
	if err != nil {
		return lock.Pair{}, err
	}
	b, err := tracker.ParseGesture(names[1])
	if err != nil {
		return lock.Pair{}, err
	}
	return lock.Pair{A: a, B: b}, nil
}

// DisplayColors returns the per-player hex colors, defaulting to a small
// fixed palette when unset.
func (c *Config) DisplayColors() map[string]string {
	palette := []string{"#5470c6", "#ee6666", "#91cc75", "#fac858"}
	out := make(map[string]string, len(c.Players))
	for i, p := range c.Players {
		cc := c.Colors[p]
		if cc.Display != "" {
			// Normalize through colorful so charts always get #rrggbb.
			if col, err := colorful.Hex(cc.Display); err == nil {
				out[p] = col.Hex()
				continue
			}
		}
		out[p] = palette[i%len(palette)]
	}
	return out
}
