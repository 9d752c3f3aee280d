package domain

import (
	m "gooze.dev/pkg/weevil/internal/model"
	pkg "gooze.dev/pkg/weevil/pkg"
)

// mutationScoreFromJournal is (killed + timeout) / (killed + timeout +
// survived + nocoverage) in percent. Compile errors, runtime errors and ignored
// mutants stay out of the denominator; an empty denominator scores 100.
func mutationScoreFromJournal(journal pkg.FileSpill[m.MutantResult]) (float64, error) {
	detected := 0
	total := 0

	err := journal.Range(func(_ uint64, result m.MutantResult) error {
		switch result.Status {
		case m.Killed, m.Timeout:
			detected++
			total++
		case m.Survived, m.NoCoverage:
			total++
		case m.Pending, m.CompileError, m.Ignored, m.RuntimeError:
			// Not part of the score.
		}

		return nil
	})
	if err != nil {
		return 0.0, err
	}

	if total == 0 {
		return 100.0, nil
	}

	return float64(detected) / float64(total) * 100, nil
}

// journalStatus appends a result for every mutant currently in status.
func journalStatus(registry Registry, journal pkg.FileSpill[m.MutantResult], status m.MutantStatus) error {
	for _, mutant := range registry.Mutants() {
		if mutant.Status != status {
			continue
		}

		if err := journal.Append(m.MutantResult{
			ID:     mutant.ID,
			Kind:   mutant.Kind,
			Source: mutant.Source,
			Status: mutant.Status,
			Reason: mutant.StatusReason,
		}); err != nil {
			return err
		}
	}

	return nil
}
