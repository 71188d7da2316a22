package services

import "social-go/internal/models"

// RankFeed orders candidate posts (already newest first) for a requester whose
// network is their friends plus themselves.
//
//   - search given: only in-network posts
//   - no search, some in-network posts: in-network posts, then the rest
//   - no search, no in-network posts: candidates unchanged
//
// Relative order inside each bucket is preserved.
func RankFeed(candidates []*models.Post, network map[uint]struct{}, search string) []*models.Post {
	inNetwork := make([]*models.Post, 0, len(candidates))
	outOfNetwork := make([]*models.Post, 0, len(candidates))
	for _, p := range candidates {
		if _, ok := network[p.UserID]; ok {
			inNetwork = append(inNetwork, p)
		} else {
			outOfNetwork = append(outOfNetwork, p)
		}
	}

	switch {
	case search != "":
		return inNetwork
	case len(inNetwork) > 0:
		return append(inNetwork, outOfNetwork...)
	default:
		return candidates
	}
}

// networkOf returns friendIDs plus the requester as a set.
func networkOf(requesterID uint, friendIDs []uint) map[uint]struct{} {
	network := make(map[uint]struct{}, len(friendIDs)+1)
	network[requesterID] = struct{}{}
	for _, id := range friendIDs {
		network[id] = struct{}{}
	}
	return network
}
