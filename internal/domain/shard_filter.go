package domain

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	m "gooze.dev/pkg/weevil/internal/model"
)

// ShardIgnoredReason is the status reason of mutants assigned to another shard.
const ShardIgnoredReason = "Mutant belongs to another shard"

// Shard selects the slice of mutants one process is responsible for.
type Shard struct {
	Index int
	Total int
}

// ParseShard parses "INDEX/TOTAL". An empty value means no sharding.
func ParseShard(value string) (Shard, error) {
	if value == "" {
		return Shard{}, nil
	}

	index, total, ok := strings.Cut(value, "/")
	if !ok {
		return Shard{}, fmt.Errorf("invalid shard %q: want INDEX/TOTAL", value)
	}

	shard := Shard{}

	var err error

	if shard.Index, err = strconv.Atoi(strings.TrimSpace(index)); err != nil {
		return Shard{}, fmt.Errorf("invalid shard index %q: %w", index, err)
	}

	if shard.Total, err = strconv.Atoi(strings.TrimSpace(total)); err != nil {
		return Shard{}, fmt.Errorf("invalid shard total %q: %w", total, err)
	}

	if shard.Total < 1 || shard.Index < 0 || shard.Index >= shard.Total {
		return Shard{}, fmt.Errorf("invalid shard %q: index must be in [0, total)", value)
	}

	return shard, nil
}

// Enabled reports whether the mutants are split across several shards.
func (s Shard) Enabled() bool {
	return s.Total > 1
}

// Owns reports whether id falls in this shard.
func (s Shard) Owns(id m.MutantID) bool {
	if !s.Enabled() {
		return true
	}

	return int(uint64(id)%uint64(s.Total)) == s.Index
}

func (s Shard) String() string {
	return fmt.Sprintf("%d/%d", s.Index, s.Total)
}

// ApplyShard marks Pending mutants outside shard Ignored.
func ApplyShard(registry Registry, shard Shard) (int, error) {
	if !shard.Enabled() {
		return 0, nil
	}

	ignored := 0

	for _, mutant := range registry.Pending() {
		if shard.Owns(mutant.ID) {
			continue
		}

		if err := registry.Transition(mutant.ID, m.Ignored, ShardIgnoredReason); err != nil {
			return ignored, err
		}

		ignored++
	}

	slog.Info("Applied shard filter", "shard", shard, "ignored", ignored)

	return ignored, nil
}
