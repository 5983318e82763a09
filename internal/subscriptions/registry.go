// Package subscriptions reads the subscription registry and selects the
// subscriptions that take part in a digest run.
package subscriptions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"sitescripts/internal/model"
)

type registryFile struct {
	Subscriptions []entry `yaml:"subscriptions"`
}

type entry struct {
	Name      string    `yaml:"name"`
	Email     string    `yaml:"email"`
	Digest    string    `yaml:"digest"`
	DigestDay int       `yaml:"digestDay"`
	Variants  []variant `yaml:"variants"`
}

type variant struct {
	Title    string `yaml:"title"`
	URL      string `yaml:"url"`
	Complete bool   `yaml:"complete"`
}

// Downloader fetches a remote registry.
type Downloader interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Load reads the registry from source, which is either a local path or
// an http(s) URL fetched with dl.
func Load(ctx context.Context, source string, dl Downloader, log *slog.Logger) ([]*model.Subscription, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return ReadFile(source, log)
	}
	data, err := dl.Fetch(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("download registry %s: %w", source, err)
	}
	return Parse(bytes.NewReader(data), log)
}

// ReadFile parses the registry file at path.
func ReadFile(path string, log *slog.Logger) ([]*model.Subscription, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f, log)
}

// Parse reads registry entries from r. Entries without an email address
// or without variants are skipped.
func Parse(r io.Reader, log *slog.Logger) ([]*model.Subscription, error) {
	var file registryFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode registry: %w", err)
	}

	subs := make([]*model.Subscription, 0, len(file.Subscriptions))
	for i, e := range file.Subscriptions {
		if strings.TrimSpace(e.Email) == "" {
			log.Warn("skip subscription without email", "index", i, "name", e.Name)
			continue
		}

		var variants []model.Variant
		for _, v := range e.Variants {
			if v.URL == "" {
				continue
			}
			variants = append(variants, model.Variant{Title: v.Title, URL: v.URL, Complete: v.Complete})
		}
		if len(variants) == 0 {
			log.Warn("skip subscription without variants", "index", i, "name", e.Name)
			continue
		}

		subs = append(subs, &model.Subscription{
			Title:     e.Name,
			Address:   e.Email,
			Digest:    parseCadence(e.Digest),
			DigestDay: e.DigestDay,
			Variants:  variants,
		})
	}
	return subs, nil
}

func parseCadence(s string) model.Cadence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return model.CadenceDaily
	case "none":
		return model.CadenceNone
	default:
		return model.CadenceWeekly
	}
}

// Selection is the set of subscriptions taking part in one run.
type Selection struct {
	// ByURL maps every variant URL to its subscription.
	ByURL map[string]*model.Subscription
	// List holds each selected subscription once, in registry order.
	List []*model.Subscription
}

// Select keeps the subscriptions whose cadence matches the run.
// Day runs skip weekly subscriptions. Week runs skip daily ones and
// require the digest day to equal weekday. Any other cadence, none
// included, takes part in every run.
func Select(subs []*model.Subscription, interval model.Interval, weekday int) Selection {
	sel := Selection{ByURL: make(map[string]*model.Subscription)}
	for _, s := range subs {
		if !matches(s, interval, weekday) {
			continue
		}
		for _, v := range s.Variants {
			sel.ByURL[v.URL] = s
		}
		sel.List = append(sel.List, s)
	}
	return sel
}

func matches(s *model.Subscription, interval model.Interval, weekday int) bool {
	switch interval {
	case model.IntervalDay:
		return s.Cadence() != model.CadenceWeekly
	case model.IntervalWeek:
		return s.Cadence() != model.CadenceDaily && s.Weekday() == weekday
	}
	return true
}
