package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/okian/shotboard/internal/domain/tournament"
)

// Aggregate is the per-participant summary derived from a ScoreSheet.
type Aggregate struct {
	Total        int `json:"total"`
	PerfectShots int `json:"perfectShotCount"`
}

// Status describes how far a participant has progressed through the sheet.
type Status int

// Participant progress states.
const (
	StatusNotStarted Status = iota
	StatusInProgress
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ScoreSheet holds every shot of every participant in a tournament. The sheet
// is dense: each participant owns targets*shots cells, all present from
// construction, addressed by 1-based target and shot indices.
type ScoreSheet struct {
	targets int
	shots   int
	order   []string
	cells   map[string][]Score
}

// NewScoreSheet builds an all-unset sheet for the given participants.
// Duplicate ids are collapsed.
func NewScoreSheet(participantIDs []string, targets, shots int) *ScoreSheet {
	if targets < 0 {
		targets = 0
	}
	if shots < 0 {
		shots = 0
	}
	s := &ScoreSheet{
		targets: targets,
		shots:   shots,
		order:   make([]string, 0, len(participantIDs)),
		cells:   make(map[string][]Score, len(participantIDs)),
	}
	for _, id := range participantIDs {
		if _, dup := s.cells[id]; dup {
			continue
		}
		s.order = append(s.order, id)
		s.cells[id] = make([]Score, targets*shots)
	}
	return s
}

// Targets returns the number of targets per participant.
func (s *ScoreSheet) Targets() int {
	if s == nil {
		return 0
	}
	return s.targets
}

// Shots returns the number of shots per target.
func (s *ScoreSheet) Shots() int {
	if s == nil {
		return 0
	}
	return s.shots
}

// Participants returns participant ids in sheet order.
func (s *ScoreSheet) Participants() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Has reports whether the sheet has a row for id.
func (s *ScoreSheet) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.cells[id]
	return ok
}

// InRange reports whether (target, shot) addresses a cell of this sheet.
func (s *ScoreSheet) InRange(target, shot int) bool {
	return s != nil && target >= 1 && target <= s.targets && shot >= 1 && shot <= s.shots
}

func (s *ScoreSheet) index(target, shot int) int {
	return (target-1)*s.shots + (shot - 1)
}

// Get returns the score at the address; ok is false when the address does
// not exist.
func (s *ScoreSheet) Get(id string, target, shot int) (Score, bool) {
	if !s.InRange(target, shot) {
		return Score{}, false
	}
	row, ok := s.cells[id]
	if !ok {
		return Score{}, false
	}
	return row[s.index(target, shot)], true
}

// Set writes a score at the address and reports whether it existed.
func (s *ScoreSheet) Set(id string, target, shot int, v Score) bool {
	if !s.InRange(target, shot) {
		return false
	}
	row, ok := s.cells[id]
	if !ok {
		return false
	}
	row[s.index(target, shot)] = v
	return true
}

// Aggregate sums the participant's set shots and counts perfect ones.
// Unknown participants aggregate to zero.
func (s *ScoreSheet) Aggregate(id string) Aggregate {
	var agg Aggregate
	if s == nil {
		return agg
	}
	for _, c := range s.cells[id] {
		agg.Total += c.Points()
		if c.IsPerfect() {
			agg.PerfectShots++
		}
	}
	return agg
}

// TargetTotal sums one target of one participant.
func (s *ScoreSheet) TargetTotal(id string, target int) int {
	total := 0
	for shot := 1; shot <= s.Shots(); shot++ {
		c, _ := s.Get(id, target, shot)
		total += c.Points()
	}
	return total
}

// IsPerfectTarget reports whether every shot at the target scored MaxScore.
func (s *ScoreSheet) IsPerfectTarget(id string, target int) bool {
	if s.Shots() == 0 {
		return false
	}
	return s.TargetTotal(id, target) == MaxScore*s.Shots()
}

// Status reports whether the participant has no, some or all shots scored.
func (s *ScoreSheet) Status(id string) Status {
	if s == nil {
		return StatusNotStarted
	}
	row := s.cells[id]
	set := 0
	for _, c := range row {
		if c.IsSet() {
			set++
		}
	}
	switch {
	case set == 0:
		return StatusNotStarted
	case set == len(row):
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

// Clear unsets every cell while keeping the shape.
func (s *ScoreSheet) Clear() {
	if s == nil {
		return
	}
	for _, row := range s.cells {
		for i := range row {
			row[i] = Score{}
		}
	}
}

// Clone returns a deep copy that shares no storage with s.
func (s *ScoreSheet) Clone() *ScoreSheet {
	if s == nil {
		return nil
	}
	c := &ScoreSheet{
		targets: s.targets,
		shots:   s.shots,
		order:   make([]string, len(s.order)),
		cells:   make(map[string][]Score, len(s.cells)),
	}
	copy(c.order, s.order)
	for id, row := range s.cells {
		cp := make([]Score, len(row))
		copy(cp, row)
		c.cells[id] = cp
	}
	return c
}

// MarshalJSON writes the nested participant -> target -> shot object with
// string keys and null for unset shots.
func (s *ScoreSheet) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]map[string]Score, len(s.order))
	for _, id := range s.order {
		targets := make(map[string]map[string]Score, s.targets)
		for t := 1; t <= s.targets; t++ {
			shots := make(map[string]Score, s.shots)
			for sh := 1; sh <= s.shots; sh++ {
				shots[strconv.Itoa(sh)] = s.cells[id][s.index(t, sh)]
			}
			targets[strconv.Itoa(t)] = shots
		}
		out[id] = targets
	}
	return json.Marshal(out)
}

type cellKey struct{ target, shot int }

type decodedRow struct {
	cells     map[cellKey]Score
	canonical map[cellKey]bool
}

// UnmarshalJSON reads the nested object leniently: index keys may be any
// integer spelling and cells may be null, numbers or numeric strings. When
// two keys name the same cell the canonical spelling ("1", not "01") wins.
// The shape is the largest target and shot index seen; missing cells are
// filled as unset so the result is dense.
func (s *ScoreSheet) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: score sheet is not valid json", ErrSerialization)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return fmt.Errorf("%w: score sheet must be an object", ErrSerialization)
	}

	var (
		order  []string
		rows   = make(map[string]*decodedRow)
		maxT   int
		maxS   int
		decErr error
	)
	root.ForEach(func(pk, pv gjson.Result) bool {
		id := pk.String()
		if !pv.IsObject() {
			decErr = fmt.Errorf("%w: participant %q is not an object", ErrSerialization, id)
			return false
		}
		row, ok := rows[id]
		if !ok {
			row = &decodedRow{cells: make(map[cellKey]Score), canonical: make(map[cellKey]bool)}
			rows[id] = row
			order = append(order, id)
		}
		pv.ForEach(func(tk, tv gjson.Result) bool {
			target, tCanon, err := parseIndex(tk.String(), tournament.MaxTargets)
			if err != nil {
				decErr = err
				return false
			}
			if !tv.IsObject() {
				decErr = fmt.Errorf("%w: target %q of %q is not an object", ErrSerialization, tk.String(), id)
				return false
			}
			tv.ForEach(func(sk, sv gjson.Result) bool {
				shot, sCanon, err := parseIndex(sk.String(), tournament.MaxShotsPerTarget)
				if err != nil {
					decErr = err
					return false
				}
				score, err := parseCell(sv)
				if err != nil {
					decErr = err
					return false
				}
				key := cellKey{target: target, shot: shot}
				canon := tCanon && sCanon
				if prev, seen := row.canonical[key]; seen && prev && !canon {
					return true
				}
				row.cells[key] = score
				row.canonical[key] = canon
				maxT = max(maxT, target)
				maxS = max(maxS, shot)
				return true
			})
			return decErr == nil
		})
		return decErr == nil
	})
	if decErr != nil {
		return decErr
	}

	sheet := NewScoreSheet(order, maxT, maxS)
	for id, row := range rows {
		for key, score := range row.cells {
			sheet.Set(id, key.target, key.shot, score)
		}
	}
	*s = *sheet
	return nil
}

// parseIndex reads a 1-based index key no larger than limit.
func parseIndex(key string, limit int) (int, bool, error) {
	n, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil || n < 1 {
		return 0, false, fmt.Errorf("%w: invalid index key %q", ErrSerialization, key)
	}
	if n > limit {
		return 0, false, fmt.Errorf("%w: index key %q exceeds %d", ErrSerialization, key, limit)
	}
	return n, key == strconv.Itoa(n), nil
}

func parseCell(v gjson.Result) (Score, error) {
	var n int
	switch v.Type {
	case gjson.Null:
		return Score{}, nil
	case gjson.Number:
		if v.Num != math.Trunc(v.Num) {
			return Score{}, fmt.Errorf("%w: fractional score %v", ErrSerialization, v.Num)
		}
		n = int(v.Num)
	case gjson.String:
		raw := strings.TrimSpace(v.Str)
		if raw == "" {
			return Score{}, nil
		}
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return Score{}, fmt.Errorf("%w: non-numeric score %q", ErrSerialization, v.Str)
		}
		n = parsed
	default:
		return Score{}, fmt.Errorf("%w: unexpected score value %s", ErrSerialization, v.Raw)
	}
	if n < MinScore || n > MaxScore {
		return Score{}, fmt.Errorf("%w: score %d out of range", ErrSerialization, n)
	}
	return ScoreOf(n), nil
}
