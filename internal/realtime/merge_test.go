package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skillswap/internal/storage"
)

func msg(id int64, at time.Time) storage.Message {
	return storage.Message{ID: id, ConversationID: 4, CreatedAt: at}
}

func TestMergeAppends(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	list := []storage.Message{msg(1, base), msg(2, base.Add(time.Minute))}
	list = Merge(list, msg(3, base.Add(2*time.Minute)))

	require.Len(t, list, 3)
	require.Equal(t, int64(3), list[2].ID)
}

func TestMergeDropsDuplicate(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	list := []storage.Message{msg(1, base), msg(2, base.Add(time.Minute))}
	list = Merge(list, msg(2, base.Add(time.Hour)))

	require.Len(t, list, 2)
	require.Equal(t, base.Add(time.Minute), list[1].CreatedAt)
}

func TestMergeResortsOutOfOrder(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	list := []storage.Message{msg(1, base), msg(3, base.Add(2*time.Minute))}
	list = Merge(list, msg(2, base.Add(time.Minute)))

	require.Equal(t, []int64{1, 2, 3}, ids(list))
}

func TestMergeTiesBreakByID(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	var list []storage.Message
	list = Merge(list, msg(5, at))
	list = Merge(list, msg(2, at))
	list = Merge(list, msg(9, at))

	require.Equal(t, []int64{2, 5, 9}, ids(list))
}

func TestMergeIdempotent(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	var list []storage.Message
	for i := 0; i < 3; i++ {
		list = Merge(list, msg(1, base))
	}
	require.Len(t, list, 1)
}

func ids(list []storage.Message) []int64 {
	out := make([]int64, 0, len(list))
	for _, m := range list {
		out = append(out, m.ID)
	}
	return out
}
