package main

import (
	"fmt"

	"github.com/maddsua/pichecker"
)

// Resolves configured probe labels; an empty list enables every default check
func selectChecks(labels []string) ([]pichecker.Check, error) {

	if len(labels) == 0 {
		return pichecker.DefaultChecks(), nil
	}

	seen := map[string]bool{}

	var checks []pichecker.Check

	for _, label := range labels {

		check, has := pichecker.LookupCheck(label)
		if !has {
			return nil, fmt.Errorf("unknown probe '%s'", label)
		}

		if seen[check.Label] {
			continue
		}

		seen[check.Label] = true
		checks = append(checks, check)
	}

	return checks, nil
}
