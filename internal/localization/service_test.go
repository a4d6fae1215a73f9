package localization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type resourceKey struct {
	lang int64
	name string
}

type mockRepo struct {
	langs     []Language
	resources map[resourceKey]string
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		langs: []Language{
			{ID: 1, Name: "English", Culture: language.AmericanEnglish, Published: true},
			{ID: 2, Name: "Deutsch", Culture: language.German, Published: false},
		},
		resources: map[resourceKey]string{},
	}
}

func (m *mockRepo) ListLanguages(ctx context.Context, showHidden bool) ([]Language, error) {
	var out []Language
	for _, l := range m.langs {
		if l.Published || showHidden {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockRepo) UpsertResource(ctx context.Context, res Resource) error {
	m.resources[resourceKey{res.LanguageID, res.Name}] = res.Value
	return nil
}

func (m *mockRepo) GetResource(ctx context.Context, languageID int64, name string) (string, bool, error) {
	v, ok := m.resources[resourceKey{languageID, name}]
	return v, ok, nil
}

func (m *mockRepo) DeleteResource(ctx context.Context, languageID int64, name string) error {
	delete(m.resources, resourceKey{languageID, name})
	return nil
}

func TestResourceName(t *testing.T) {
	assert.Equal(t, "permission.catalog.manageproducts", ResourceName(" Catalog.ManageProducts "))
}

func TestSaveAndDeleteDisplayName(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	langs, err := svc.Languages(ctx)
	require.NoError(t, err)
	require.Len(t, langs, 2)

	repo.resources[resourceKey{2, ResourceName("Polls.View")}] = "Umfragen anzeigen"
	require.NoError(t, svc.SaveLocalizedDisplayName(ctx, "Polls.View", "Admin area. Polls. View", langs))

	en, err := svc.LocalizedDisplayName(ctx, "Polls.View", langs[0], "fallback")
	require.NoError(t, err)
	assert.Equal(t, "Admin area. Polls. View", en)
	de, err := svc.LocalizedDisplayName(ctx, "Polls.View", langs[1], "fallback")
	require.NoError(t, err)
	assert.Equal(t, "Umfragen anzeigen", de, "existing translations are kept")

	require.NoError(t, svc.DeleteLocalizedDisplayName(ctx, "Polls.View", langs))
	assert.Empty(t, repo.resources)

	missing, err := svc.LocalizedDisplayName(ctx, "Polls.View", langs[0], "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", missing)
}

func TestParseCulture(t *testing.T) {
	assert.Equal(t, language.German, parseCulture("de"))
	assert.Equal(t, language.Und, parseCulture("not a tag!"))
}
