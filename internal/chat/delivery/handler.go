package delivery

import (
	"errors"
	"fmt"
	"net/http"

	authdomain "mailchat-backend/internal/auth/domain"
	chatdomain "mailchat-backend/internal/chat/domain"
	chatdto "mailchat-backend/internal/chat/dto"
	"mailchat-backend/internal/chat/usecase"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatUsecase usecase.ChatUsecase
}

func NewChatHandler(chatUsecase usecase.ChatUsecase) *ChatHandler {
	return &ChatHandler{chatUsecase: chatUsecase}
}

func currentUser(c *gin.Context) (*authdomain.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	user, ok := value.(*authdomain.User)
	return user, ok
}

// Message processes a natural language command.
func (h *ChatHandler) Message(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req chatdto.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.chatUsecase.ProcessMessage(c.Request.Context(), user, req.Message)
	if err != nil {
		writeChatError(c, err, "Failed to process message")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Action executes a confirmed action from a previous response.
func (h *ChatHandler) Action(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req chatdto.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.chatUsecase.ProcessAction(c.Request.Context(), user, &req)
	if err != nil {
		writeChatError(c, err, "Failed to handle action")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// writeChatError maps caller mistakes to 400 and everything else to 500.
func writeChatError(c *gin.Context, err error, prefix string) {
	var clientErr *chatdomain.ClientError
	if errors.As(err, &clientErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": clientErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s: %v", prefix, err)})
}
