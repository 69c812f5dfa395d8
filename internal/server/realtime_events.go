package server

import (
	"context"
	"encoding/json"
	"log"
)

// Event type constants prevent typos in event names.
const (
	EventNewComment     = "new_comment"
	EventCommentUpdated = "comment_updated"
	EventCommentDeleted = "comment_deleted"
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"
)

// publishPostEvent fans a comment lifecycle event out to the post's room.
// With Redis available the event goes through pub/sub so every instance's
// hub rebroadcasts it; without Redis it is delivered to local clients only.
// Delivery is best effort either way.
func (s *Server) publishPostEvent(postID uint, eventType string, payload interface{}) {
	eventJSON, err := json.Marshal(map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}

	if s.notifier != nil {
		perr := s.notifier.PublishPostEvent(context.Background(), postID, string(eventJSON))
		if perr == nil {
			return
		}
		log.Printf("failed to publish %s event for post %d: %v", eventType, postID, perr)
	}
	if s.hub != nil {
		s.hub.BroadcastToPost(postID, eventType, eventJSON)
	}
}

// publishTypingEvent fans a typing indicator out to the post's room over the
// dedicated typing channel.
func (s *Server) publishTypingEvent(postID uint, eventType string, payload interface{}) {
	eventJSON, err := json.Marshal(map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}

	if s.notifier != nil {
		perr := s.notifier.PublishTyping(context.Background(), postID, string(eventJSON))
		if perr == nil {
			return
		}
		log.Printf("failed to publish %s event for post %d: %v", eventType, postID, perr)
	}
	if s.hub != nil {
		s.hub.BroadcastToPost(postID, eventType, eventJSON)
	}
}
