package client

import (
	"strings"

	"github.com/samber/lo"
)

// JoinModels serializes a model list for the wire. An empty list means all models.
func JoinModels(names []string) string {
	return strings.Join(names, ",")
}

// SplitModels is the inverse of JoinModels. Blank entries are dropped.
func SplitModels(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return lo.Compact(lo.Map(strings.Split(s, ","), func(name string, _ int) string {
		return strings.TrimSpace(name)
	}))
}
