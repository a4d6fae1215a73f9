package localization

import (
	"context"
	"fmt"
	"strings"
)

// permissionResourcePrefix namespaces capability display names.
const permissionResourcePrefix = "permission."

// RepositoryPort defines data access methods for localization.
type RepositoryPort interface {
	ListLanguages(ctx context.Context, showHidden bool) ([]Language, error)
	UpsertResource(ctx context.Context, res Resource) error
	GetResource(ctx context.Context, languageID int64, name string) (string, bool, error)
	DeleteResource(ctx context.Context, languageID int64, name string) error
}

// Service stores localized display names.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ResourceName returns the resource key for a capability system name.
// Keys are lower-cased so lookups ignore case.
func ResourceName(systemName string) string {
	return permissionResourcePrefix + strings.ToLower(strings.TrimSpace(systemName))
}

// Languages returns every language, published or not.
func (s *Service) Languages(ctx context.Context) ([]Language, error) {
	return s.repo.ListLanguages(ctx, true)
}

// SaveLocalizedDisplayName stores displayName as the value for systemName in
// every language that does not already define one.
func (s *Service) SaveLocalizedDisplayName(ctx context.Context, systemName, displayName string, languages []Language) error {
	name := ResourceName(systemName)
	for _, lang := range languages {
		_, exists, err := s.repo.GetResource(ctx, lang.ID, name)
		if err != nil {
			return fmt.Errorf("localization: get %s/%d: %w", name, lang.ID, err)
		}
		if exists {
			continue
		}
		if err := s.repo.UpsertResource(ctx, Resource{LanguageID: lang.ID, Name: name, Value: displayName}); err != nil {
			return fmt.Errorf("localization: save %s/%d: %w", name, lang.ID, err)
		}
	}
	return nil
}

// DeleteLocalizedDisplayName removes the display name of systemName in every language.
func (s *Service) DeleteLocalizedDisplayName(ctx context.Context, systemName string, languages []Language) error {
	name := ResourceName(systemName)
	for _, lang := range languages {
		if err := s.repo.DeleteResource(ctx, lang.ID, name); err != nil {
			return fmt.Errorf("localization: delete %s/%d: %w", name, lang.ID, err)
		}
	}
	return nil
}

// LocalizedDisplayName returns the display name for systemName in lang,
// falling back to fallback when no resource exists.
func (s *Service) LocalizedDisplayName(ctx context.Context, systemName string, lang Language, fallback string) (string, error) {
	value, ok, err := s.repo.GetResource(ctx, lang.ID, ResourceName(systemName))
	if err != nil {
		return "", err
	}
	if !ok || value == "" {
		return fallback, nil
	}
	return value, nil
}
