package registration_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/info-evry/astro-ndi-sub000/internal/registration"
	"github.com/info-evry/astro-ndi-sub000/pkg/testutil"
)

func memberCreatedAt(year int, month time.Month) registration.Member {
	return registration.Member{
		ID:        uuid.New(),
		CreatedAt: time.Date(year, month, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestRegistrationMonthsBuckets(t *testing.T) {
	store := registration.NewInMemoryStore()
	store.Seed(nil, []registration.Member{
		memberCreatedAt(2024, time.November),
		memberCreatedAt(2024, time.November),
		memberCreatedAt(2024, time.December),
		memberCreatedAt(2025, time.January),
	}, nil)

	months, err := store.RegistrationMonths(context.Background())
	require.NoError(t, err)
	require.Len(t, months, 3)

	byBucket := make(map[[2]int]int, len(months))
	for _, m := range months {
		byBucket[[2]int{m.Year, int(m.Month)}] = m.Count
	}
	assert.Equal(t, 2, byBucket[[2]int{2024, 11}])
	assert.Equal(t, 1, byBucket[[2]int{2024, 12}])
	assert.Equal(t, 1, byBucket[[2]int{2025, 1}])
}

func TestCountsAndDeleteAll(t *testing.T) {
	store := registration.NewInMemoryStore()

	testutil.Given(t, "a store with one team, two members and a payment event", func(t *testing.T) {
		teamID := uuid.New()
		store.Seed(
			[]registration.Team{{ID: teamID, Name: "Kernel Panic"}},
			[]registration.Member{
				{ID: uuid.New(), TeamID: teamID},
				{ID: uuid.New(), TeamID: teamID},
			},
			[]registration.PaymentEvent{{ID: uuid.New()}},
		)

		counts, err := store.Counts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, registration.Counts{Teams: 1, Members: 2, PaymentEvents: 1}, counts)
		assert.False(t, counts.Empty())
	})

	testutil.When(t, "everything is deleted", func(t *testing.T) {
		deleted, err := store.DeleteAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, registration.Counts{Teams: 1, Members: 2, PaymentEvents: 1}, deleted)
	})

	testutil.Then(t, "the store is empty and a second wipe deletes nothing", func(t *testing.T) {
		after, err := store.Counts(context.Background())
		require.NoError(t, err)
		assert.True(t, after.Empty())

		deleted, err := store.DeleteAll(context.Background())
		require.NoError(t, err)
		assert.True(t, deleted.Empty())
	})
}

func TestListCopiesAreIndependent(t *testing.T) {
	store := registration.NewInMemoryStore()
	store.Seed(nil, []registration.Member{{ID: uuid.New(), FirstName: "Chloe"}}, nil)

	members, err := store.ListMembers(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 1)
	members[0].FirstName = "mutated"

	again, err := store.ListMembers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Chloe", again[0].FirstName)
}
