package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sajib-hossain/photogram/backend/internal/models"
	"github.com/sajib-hossain/photogram/backend/internal/repositories"
	"gorm.io/gorm"
)

// messagePageSize bounds a single message history fetch.
const messagePageSize = 100

// maxMessageLength caps message text.
const maxMessageLength = 1000

// MessageHandler handles conversation and direct-message HTTP requests
type MessageHandler struct {
	conversationRepository repositories.ConversationRepository
	messageRepository      repositories.MessageRepository
	userRepository         repositories.UserRepository
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(convRepo repositories.ConversationRepository, msgRepo repositories.MessageRepository, userRepo repositories.UserRepository) *MessageHandler {
	return &MessageHandler{
		conversationRepository: convRepo,
		messageRepository:      msgRepo,
		userRepository:         userRepo,
	}
}

// RegisterMessageRoutes registers messaging routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.GET("/conversations", h.ListConversations)
	g.POST("/conversations/:userId", h.GetOrCreateConversation)
	g.GET("/conversations/:id/messages", h.ListMessages)
	g.POST("/conversations/:id/messages", h.SendMessage)
	g.GET("/messages/unread-count", h.GetUnreadCount)
}

// EnrichedConversation carries participant profiles, the last message and the
// caller's unread count for that thread.
type EnrichedConversation struct {
	models.Conversation
	ParticipantUsers []models.UserCompact `json:"participantUsers"`
	LastMessage      *models.Message      `json:"lastMessage,omitempty"`
	UnreadCount      int64                `json:"unreadCount"`
}

func (h *MessageHandler) participantCompacts(participants []string) []models.UserCompact {
	compacts := make([]models.UserCompact, 0, len(participants))
	for _, p := range participants {
		if user, err := h.userRepository.GetUserByID(parseUID(p)); err == nil {
			compacts = append(compacts, user.ToCompact())
		}
	}
	return compacts
}

// ListConversations returns the caller's conversations, most recently active
// first, each annotated with the unread count of messages addressed to the
// caller from the other participant.
func (h *MessageHandler) ListConversations(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	currentUID := uidString(currentUserID)
	ctx := c.Request().Context()

	conversations, err := h.conversationRepository.ListByParticipant(ctx, currentUID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	enriched := make([]EnrichedConversation, 0, len(conversations))
	for _, conv := range conversations {
		unread, err := h.messageRepository.CountUnreadFrom(ctx, currentUID, conv.OtherParticipant(currentUID))
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		ec := EnrichedConversation{
			Conversation:     conv,
			ParticipantUsers: h.participantCompacts(conv.Participants),
			UnreadCount:      unread,
		}
		if conv.LastMessageID != nil {
			if msg, err := h.messageRepository.GetMessageByID(ctx, *conv.LastMessageID); err == nil {
				ec.LastMessage = msg
			}
		}
		enriched = append(enriched, ec)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "conversations": enriched})
}

// GetOrCreateConversation finds or creates the conversation between the
// caller and the target user. Idempotent for the pair regardless of call
// order; duplicate creation under a race is prevented by the repository's
// atomic upsert.
func (h *MessageHandler) GetOrCreateConversation(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	otherID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	if uint(otherID) == currentUserID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot create conversation with yourself")
	}

	if _, err := h.userRepository.GetUserByID(uint(otherID)); err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	conversation, err := h.conversationRepository.GetOrCreate(c.Request().Context(), uidString(currentUserID), uidString(uint(otherID)))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"conversation": EnrichedConversation{
			Conversation:     *conversation,
			ParticipantUsers: h.participantCompacts(conversation.Participants),
		},
	})
}

// ListMessages returns the conversation history, oldest first, capped at 100
// messages. Side effect: messages addressed to the caller within this pairing
// are bulk-marked read.
func (h *MessageHandler) ListMessages(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	currentUID := uidString(currentUserID)
	ctx := c.Request().Context()

	conversation, err := h.conversationRepository.GetByID(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}
	if !conversation.HasParticipant(currentUID) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized")
	}

	other := conversation.OtherParticipant(currentUID)
	messages, err := h.messageRepository.ListBetween(ctx, currentUID, other, messagePageSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Best-effort: a message arriving concurrently may stay unread until the
	// next fetch.
	if err := h.messageRepository.MarkRead(ctx, currentUID, other); err != nil {
		c.Logger().Errorf("failed to mark messages read: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "messages": messages})
}

// SendMessage validates and stores a message, then updates the conversation's
// last-message pointer. The receiver is always the other participant, never
// client input.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	currentUID := uidString(currentUserID)
	ctx := c.Request().Context()

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" && req.MediaURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message must have content or media")
	}
	if len(content) > maxMessageLength {
		return echo.NewHTTPError(http.StatusBadRequest, "Message cannot exceed 1000 characters")
	}
	if req.MediaURL != "" && !models.IsValidMediaType(req.MediaType) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid media type")
	}

	conversation, err := h.conversationRepository.GetByID(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}
	if !conversation.HasParticipant(currentUID) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized")
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		Sender:         currentUID,
		Receiver:       conversation.OtherParticipant(currentUID),
		Content:        content,
	}
	if req.MediaURL != "" {
		message.MediaURL = req.MediaURL
		message.MediaType = req.MediaType
	}

	if err := h.messageRepository.CreateMessage(ctx, message); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Second step of the non-transactional pair: on failure the message
	// exists with a stale conversation pointer until the next send.
	if err := h.conversationRepository.SetLastMessage(ctx, conversation.ID, message.ID, time.Now()); err != nil {
		c.Logger().Errorf("failed to update conversation pointer: %v", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": message})
}

// GetUnreadCount returns the caller's global unread message count
func (h *MessageHandler) GetUnreadCount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.messageRepository.CountUnread(c.Request().Context(), uidString(currentUserID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": count})
}
