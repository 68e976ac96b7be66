package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"todotracker/internal/core/domain"
	"todotracker/internal/core/port"
)

const tagSuggestionLimit = 10

type TagResolver struct {
	repo port.TagRepository
}

func NewTagResolver(repo port.TagRepository) *TagResolver {
	return &TagResolver{repo}
}

// Resolve maps raw names to persisted tags, creating the missing ones. Blank
// names are dropped and names that normalize to the same value collapse into
// one tag. The result keeps the order of first appearance.
func (tr *TagResolver) Resolve(ctx context.Context, names []string) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))

	for _, raw := range names {
		name := domain.NormalizeTagName(raw)

		if name == "" {
			continue
		}

		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}

		tag, err := tr.findOrCreate(ctx, name)

		if err != nil {
			return nil, err
		}

		tags = append(tags, tag)
	}

	return tags, nil
}

func (tr *TagResolver) findOrCreate(ctx context.Context, name string) (domain.Tag, error) {
	tag, err := tr.repo.FindByName(ctx, name)

	if err == nil {
		return tag, nil
	}

	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Tag{}, fmt.Errorf("find tag %q: %w", name, err)
	}

	tag, err = tr.repo.Create(ctx, name)

	if err == nil {
		return tag, nil
	}

	if !errors.Is(err, domain.ErrConflict) {
		return domain.Tag{}, fmt.Errorf("create tag %q: %w", name, err)
	}

	// Another request created the same tag between the lookup and the insert.
	slog.Debug("TagResolver#Resolve", "conflict", name)

	tag, err = tr.repo.FindByName(ctx, name)

	if err != nil {
		return domain.Tag{}, fmt.Errorf("reread tag %q: %w", name, err)
	}

	return tag, nil
}

// Suggest returns up to ten existing tag names containing search.
func (tr *TagResolver) Suggest(ctx context.Context, search string) ([]string, error) {
	names := make([]string, 0)

	if domain.NormalizeTagName(search) == "" {
		return names, nil
	}

	tags, err := tr.repo.Suggest(ctx, search, tagSuggestionLimit)

	if err != nil {
		return nil, err
	}

	for _, tag := range tags {
		names = append(names, tag.Name)
	}

	return names, nil
}
