package realtime

import (
	"sort"

	"skillswap/internal/storage"
)

// Merge inserts a pushed message into an ordered message list, dropping
// duplicates by id and re-sorting by creation time (id as tiebreaker) so
// out-of-order delivery self-corrects.
func Merge(list []storage.Message, msg storage.Message) []storage.Message {
	for _, m := range list {
		if m.ID == msg.ID {
			return list
		}
	}

	list = append(list, msg)
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}
