package service

import (
	"context"
	"encoding/json"
	"html"
	"strconv"
	"strings"

	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	log "github.com/sirupsen/logrus"

	"telros.ru/usersvc/internal/model"
)

const profilesIndex = "profiles"

// ProfileIndex keeps a full-text index of profiles. Write methods never fail
// the caller; problems are logged.
type ProfileIndex interface {
	Enabled() bool
	IndexProfile(ctx context.Context, profile *model.Profile, email string)
	DeleteProfile(ctx context.Context, profileID uint)
	SearchProfileIDs(ctx context.Context, query string, limit int) ([]uint, error)
}

type profileDoc struct {
	ID          uint   `json:"id"`
	LastName    string `json:"last_name"`
	FirstName   string `json:"first_name"`
	MiddleName  string `json:"middle_name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}

type meiliProfileIndex struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliProfileIndex(client meilisearch.ServiceManager) ProfileIndex {
	s := &meiliProfileIndex{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndex()
	return s
}

func (s *meiliProfileIndex) initIndex() {
	searchable := []string{"last_name", "first_name", "middle_name", "email", "phone_number"}
	if _, err := s.client.Index(profilesIndex).UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("Failed to update profiles searchable attributes: %v", err)
		return
	}
	log.Println("Meilisearch profiles index initialized")
}

func (s *meiliProfileIndex) Enabled() bool {
	return true
}

func (s *meiliProfileIndex) clean(value string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s.sanitizer.Sanitize(value))), " ")
}

func (s *meiliProfileIndex) IndexProfile(ctx context.Context, profile *model.Profile, email string) {
	doc := profileDoc{
		ID:        profile.ID,
		LastName:  s.clean(profile.LastName),
		FirstName: s.clean(profile.FirstName),
		Email:     email,
	}
	if profile.MiddleName != nil {
		doc.MiddleName = s.clean(*profile.MiddleName)
	}
	if profile.PhoneNumber != nil {
		doc.PhoneNumber = s.clean(*profile.PhoneNumber)
	}

	primaryKey := "id"
	task, err := s.client.Index(profilesIndex).AddDocumentsWithContext(ctx, []profileDoc{doc}, &primaryKey)
	if err != nil {
		log.Errorf("Failed to index profile %d: %v", profile.ID, err)
		return
	}
	log.Debugf("Indexed profile %d, task id: %d", profile.ID, task.TaskUID)
}

func (s *meiliProfileIndex) DeleteProfile(ctx context.Context, profileID uint) {
	if _, err := s.client.Index(profilesIndex).DeleteDocumentWithContext(ctx, strconv.FormatUint(uint64(profileID), 10)); err != nil {
		log.Errorf("Failed to remove profile %d from index: %v", profileID, err)
	}
}

func (s *meiliProfileIndex) SearchProfileIDs(ctx context.Context, query string, limit int) ([]uint, error) {
	raw, err := s.client.Index(profilesIndex).SearchRawWithContext(ctx, query, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Hits []struct {
			ID uint `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &result); err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

type noopProfileIndex struct{}

// NewNoopProfileIndex is used when no search engine is configured; searches
// then go to the database.
func NewNoopProfileIndex() ProfileIndex {
	return noopProfileIndex{}
}

func (noopProfileIndex) Enabled() bool {
	return false
}

func (noopProfileIndex) IndexProfile(context.Context, *model.Profile, string) {}

func (noopProfileIndex) DeleteProfile(context.Context, uint) {}

func (noopProfileIndex) SearchProfileIDs(context.Context, string, int) ([]uint, error) {
	return nil, nil
}
