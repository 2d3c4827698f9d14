package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"keyring/internal/client"
	"keyring/internal/console/flags"
	"keyring/internal/console/row"
	"keyring/internal/platform/models"
)

type tokenView struct {
	ID             int64    `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Secret         string   `json:"secret,omitempty" yaml:"secret,omitempty"`
	Status         string   `json:"status" yaml:"status"`
	RemainQuota    string   `json:"remain_quota" yaml:"remain_quota"`
	UsedQuota      string   `json:"used_quota" yaml:"used_quota"`
	Created        string   `json:"created" yaml:"created"`
	Expires        string   `json:"expires" yaml:"expires"`
	ExpiryMode     string   `json:"expiry_mode" yaml:"expiry_mode"`
	Group          string   `json:"group,omitempty" yaml:"group,omitempty"`
	Models         []string `json:"models,omitempty" yaml:"models,omitempty"`
	Subnet         string   `json:"subnet,omitempty" yaml:"subnet,omitempty"`
	FixedContent   string   `json:"fixed_content,omitempty" yaml:"fixed_content,omitempty"`
	BillingPerCall bool     `json:"billing_per_request" yaml:"billing_per_request"`
}

// tableColumns lists the columns shown for a session. GROUP follows the
// user-group switch.
func tableColumns(snap flags.Snapshot, withSecret bool) []string {
	cols := []string{"ID", "NAME", "STATUS", "REMAIN", "USED", "EXPIRES"}
	if snap.UserGroupEnabled {
		cols = append(cols, "GROUP")
	}
	if withSecret {
		cols = append(cols, "SECRET")
	}
	return cols
}

func newTokenView(t *models.Token, snap flags.Snapshot, withSecret bool) tokenView {
	remain, used := row.QuotaText(*t)
	v := tokenView{
		ID:             t.ID,
		Name:           t.Name,
		Status:         row.StatusText(t.Status),
		RemainQuota:    remain,
		UsedQuota:      used,
		Created:        row.FormatTime(t.CreatedTime, time.Local),
		Expires:        row.ExpiryText(*t, time.Local),
		ExpiryMode:     t.ExpiryMode,
		Models:         client.SplitModels(t.Models),
		FixedContent:   t.FixedContent,
		BillingPerCall: t.BillingEnabled,
	}
	if withSecret {
		v.Secret = row.Secret(*t)
	}
	if snap.UserGroupEnabled {
		v.Group = row.GroupText(*t)
	}
	if t.Subnet != nil {
		v.Subnet = *t.Subnet
	}
	return v
}

func printTokens(w io.Writer, format string, snap flags.Snapshot, list []*models.Token, withSecret bool) error {
	views := lo.Map(list, func(t *models.Token, _ int) tokenView {
		return newTokenView(t, snap, withSecret)
	})

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case "yaml":
		return yaml.NewEncoder(w).Encode(views)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(tableColumns(snap, withSecret), "\t"))
		for _, v := range views {
			cells := []string{strconv.FormatInt(v.ID, 10), v.Name, v.Status, v.RemainQuota, v.UsedQuota, v.Expires}
			if snap.UserGroupEnabled {
				cells = append(cells, v.Group)
			}
			if withSecret {
				cells = append(cells, v.Secret)
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		return tw.Flush()
	default:
		return client.Invalid("output", "unknown format %q", format)
	}
}

func printToken(w io.Writer, format string, snap flags.Snapshot, t *models.Token) error {
	v := newTokenView(t, snap, true)
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "table", "":
		return yaml.NewEncoder(w).Encode(v)
	default:
		return client.Invalid("output", "unknown format %q", format)
	}
}
