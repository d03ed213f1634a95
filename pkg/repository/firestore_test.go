package repository_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/verbo-studio/verbo/pkg/model"
	"github.com/verbo-studio/verbo/pkg/repository"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	collection := fmt.Sprintf("verbo-test-%d", time.Now().UnixNano())
	repo, err := repository.New(context.Background(), projectID, databaseID, repository.WithCollection(collection))
	gt.NoError(t, err)
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})

	return repo
}

func TestFirestoreLoadEmpty(t *testing.T) {
	repo := setupFirestore(t)

	conversations, err := repo.Load(context.Background())
	gt.NoError(t, err)
	gt.A(t, conversations).Length(0)
}

func TestFirestoreSaveAndLoad(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	conv := model.NewConversation(
		model.UserInput{Theme: "Salmo 23", Tone: "Contemplativo", Audience: "Adultos"},
		&model.GeneratedContent{
			Script: "O Senhor é meu pastor",
			Titles: []string{"T1"},
		},
		time.Now(),
	)

	gt.NoError(t, repo.Save(ctx, []*model.Conversation{conv}))

	loaded, err := repo.Load(ctx)
	gt.NoError(t, err)
	gt.A(t, loaded).Length(1)
	gt.Equal(t, loaded[0].ID, conv.ID)
	gt.Equal(t, loaded[0].Content.Script, "O Senhor é meu pastor")

	gt.NoError(t, repo.Save(ctx, nil))
	loaded, err = repo.Load(ctx)
	gt.NoError(t, err)
	gt.A(t, loaded).Length(0)
}

func TestFirestoreLargeHistory(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()
	base := time.Now()

	// about 1.7 MiB in total, more than a single document can hold
	var conversations []*model.Conversation
	for i := 0; i < 80; i++ {
		conv := model.NewConversation(
			model.UserInput{Theme: fmt.Sprintf("Salmo %d", i+1), Tone: "Contemplativo", Audience: "Adultos"},
			&model.GeneratedContent{
				Script:           strings.Repeat("O Senhor é meu pastor, nada me faltará. ", 500),
				Titles:           []string{"T1", "T2", "T3", "T4", "T5"},
				Tags:             []string{"salmos", "fé"},
				Description:      strings.Repeat("d", 1000),
				ThumbnailPrompts: []string{"P1", "P2", "P3"},
			},
			base.Add(time.Duration(i)*time.Second),
		)
		// newest first, as the store keeps them
		conversations = append([]*model.Conversation{conv}, conversations...)
	}

	gt.NoError(t, repo.Save(ctx, conversations))

	loaded, err := repo.Load(ctx)
	gt.NoError(t, err)
	gt.A(t, loaded).Length(80)
	for i := range conversations {
		gt.Equal(t, loaded[i].ID, conversations[i].ID)
	}
	gt.Equal(t, loaded[0].Input.Theme, "Salmo 80")
	gt.Equal(t, loaded[0].Content.Script, conversations[0].Content.Script)

	// one more generation and one deletion
	next := model.NewConversation(model.UserInput{Theme: "Salmo 81"}, &model.GeneratedContent{Script: "s"}, base.Add(time.Hour))
	updated := append([]*model.Conversation{next}, conversations[:79]...)
	gt.NoError(t, repo.Save(ctx, updated))

	loaded, err = repo.Load(ctx)
	gt.NoError(t, err)
	gt.A(t, loaded).Length(80)
	gt.Equal(t, loaded[0].ID, next.ID)
	gt.Equal(t, loaded[79].ID, conversations[78].ID)

	gt.NoError(t, repo.Save(ctx, nil))
}
