package offer_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateList(n int) []kernel.UUID {
	out := make([]kernel.UUID, n)
	for i := range out {
		out[i] = kernel.NewUUID()
	}
	return out
}

func TestNewOffer(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		candidates := candidateList(3)
		deadline := time.Now().Add(20 * time.Second)

		o, err := offer.NewOffer(kernel.NewUUID(), candidates, deadline)

		require.NoError(t, err)
		require.NoError(t, o.Validate())
		assert.EqualValues(t, 1, o.Epoch())
		assert.Equal(t, 0, o.CurrentIndex())
		assert.False(t, o.Exhausted())

		current, err := o.Current()
		require.NoError(t, err)
		assert.True(t, current.IsEqual(candidates[0]))
	})

	t.Run("empty_candidates", func(t *testing.T) {
		_, err := offer.NewOffer(kernel.NewUUID(), nil, time.Now())
		require.Error(t, err)
	})

	t.Run("invalid_candidate", func(t *testing.T) {
		_, err := offer.NewOffer(kernel.NewUUID(), []kernel.UUID{{}}, time.Now())
		require.Error(t, err)
	})
}

func TestOffer_Advance(t *testing.T) {
	t.Run("moves_to_next_candidate_and_bumps_epoch", func(t *testing.T) {
		candidates := candidateList(3)
		o, err := offer.NewOffer(kernel.NewUUID(), candidates, time.Now())
		require.NoError(t, err)

		nextDeadline := time.Now().Add(20 * time.Second)
		require.NoError(t, o.Advance(nextDeadline))

		assert.Equal(t, 1, o.CurrentIndex())
		assert.EqualValues(t, 2, o.Epoch())
		assert.Equal(t, nextDeadline, o.Deadline())

		current, err := o.Current()
		require.NoError(t, err)
		assert.True(t, current.IsEqual(candidates[1]))
	})

	t.Run("exhausts_after_last_candidate", func(t *testing.T) {
		o, err := offer.NewOffer(kernel.NewUUID(), candidateList(2), time.Now())
		require.NoError(t, err)

		require.NoError(t, o.Advance(time.Now()))
		err = o.Advance(time.Now())
		require.ErrorIs(t, err, offer.ErrCandidatesExhausted)
		assert.True(t, o.Exhausted())

		_, err = o.Current()
		require.ErrorIs(t, err, offer.ErrCandidatesExhausted)

		err = o.Advance(time.Now())
		require.ErrorIs(t, err, offer.ErrCandidatesExhausted)
	})
}

func TestOffer_CandidatesIsACopy(t *testing.T) {
	candidates := candidateList(2)
	o, err := offer.NewOffer(kernel.NewUUID(), candidates, time.Now())
	require.NoError(t, err)

	got := o.Candidates()
	got[0] = kernel.NewUUID()

	current, err := o.Current()
	require.NoError(t, err)
	assert.True(t, current.IsEqual(candidates[0]))
}

func TestRestoreOffer(t *testing.T) {
	t.Run("restores_position_and_epoch", func(t *testing.T) {
		candidates := candidateList(3)
		deadline := time.Now().Add(5 * time.Second)

		o, err := offer.RestoreOffer(kernel.NewUUID(), candidates, 2, deadline, 3)

		require.NoError(t, err)
		assert.Equal(t, 2, o.CurrentIndex())
		assert.EqualValues(t, 3, o.Epoch())

		current, err := o.Current()
		require.NoError(t, err)
		assert.True(t, current.IsEqual(candidates[2]))
	})

	t.Run("index_at_end_is_exhausted", func(t *testing.T) {
		o, err := offer.RestoreOffer(kernel.NewUUID(), candidateList(2), 2, time.Now(), 3)
		require.NoError(t, err)
		assert.True(t, o.Exhausted())
	})

	t.Run("out_of_range_index", func(t *testing.T) {
		_, err := offer.RestoreOffer(kernel.NewUUID(), candidateList(2), 5, time.Now(), 1)
		require.Error(t, err)
	})

	t.Run("non_positive_epoch", func(t *testing.T) {
		_, err := offer.RestoreOffer(kernel.NewUUID(), candidateList(2), 0, time.Now(), 0)
		require.Error(t, err)
	})
}

func TestOffer_Validate_NotConstructed(t *testing.T) {
	var o offer.Offer
	require.ErrorIs(t, o.Validate(), offer.ErrOfferIsNotConstructed)
}
