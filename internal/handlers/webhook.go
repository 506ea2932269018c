package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/ytakahashi/todo-list/internal/models"
	"github.com/ytakahashi/todo-list/internal/services"
)

// Replier is the part of the LINE Messaging API client the webhook needs.
type Replier interface {
	ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
}

type WebhookHandler struct {
	bot    Replier
	store  *services.TaskStore
	secret string
	now    func() time.Time
}

func NewWebhookHandler(bot Replier, store *services.TaskStore, channelSecret string) *WebhookHandler {
	return &WebhookHandler{
		bot:    bot,
		store:  store,
		secret: channelSecret,
		now:    time.Now,
	}
}

func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	cb, err := webhook.ParseRequest(h.secret, c.Request())
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			log.Println("Invalid signature")
			return c.NoContent(http.StatusBadRequest)
		}
		log.Printf("Parse request error: %v", err)
		return c.NoContent(http.StatusInternalServerError)
	}

	ctx := c.Request().Context()
	for _, event := range cb.Events {
		switch e := event.(type) {
		case webhook.MessageEvent:
			switch message := e.Message.(type) {
			case webhook.TextMessageContent:
				if err := h.handleTextMessage(ctx, e.ReplyToken, message.Text); err != nil {
					log.Printf("Error handling text message: %v", err)
				}
			}
		case webhook.PostbackEvent:
			if err := h.handlePostback(ctx, e.ReplyToken, e.Postback.Data); err != nil {
				log.Printf("Error handling postback: %v", err)
			}
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WebhookHandler) handleTextMessage(ctx context.Context, replyToken, text string) error {
	text = strings.TrimSpace(text)
	command, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(command) {
	case "add":
		if rest == "" {
			return h.replyMessage(replyToken, "Please give the task a title.\nExample: add Buy milk")
		}
		return h.askForDeadline(replyToken, rest)
	case "list":
		return h.showTodoList(replyToken, rest)
	case "toggle", "done":
		return h.toggleTodo(ctx, replyToken, rest)
	case "delete":
		return h.deleteTodo(ctx, replyToken, rest)
	case "edit":
		return h.editTodo(ctx, replyToken, rest)
	case "clear":
		return h.askClearConfirmation(replyToken)
	case "help":
		return h.showHelp(replyToken)
	}

	// unrecognised messages get no reply
	return nil
}

func (h *WebhookHandler) askForDeadline(replyToken, title string) error {
	choices := []struct{ label, kind string }{
		{"Today", "today"},
		{"Tomorrow", "tomorrow"},
		{"This week", "this_week"},
		{"This month", "this_month"},
		{"No due date", "none"},
	}

	items := make([]messaging_api.QuickReplyItem, 0, len(choices))
	for _, ch := range choices {
		items = append(items, messaging_api.QuickReplyItem{
			Action: &messaging_api.PostbackAction{
				Label:       ch.label,
				Data:        fmt.Sprintf("deadline:%s:%s", ch.kind, title),
				DisplayText: ch.label,
			},
		})
	}

	message := &messaging_api.TextMessage{
		Text:       "When is it due?",
		QuickReply: &messaging_api.QuickReply{Items: items},
	}

	_, err := h.bot.ReplyMessage(
		&messaging_api.ReplyMessageRequest{
			ReplyToken: replyToken,
			Messages:   []messaging_api.MessageInterface{message},
		},
	)

	return err
}

func (h *WebhookHandler) handlePostback(ctx context.Context, replyToken, data string) error {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) < 2 {
		return nil
	}

	switch parts[0] {
	case "deadline":
		if len(parts) != 3 {
			return nil
		}
		return h.createTodoWithDeadline(ctx, replyToken, parts[2], parts[1])

	case "clear_completed":
		return h.handleClearConfirmation(ctx, replyToken, parts[1])
	}

	return nil
}

// dueDateFor turns a quick-reply choice into a YYYY-MM-DD due date.
// "none" and unknown kinds give no due date.
func dueDateFor(kind string, now time.Time) string {
	var due time.Time
	switch kind {
	case "today":
		due = now
	case "tomorrow":
		due = now.AddDate(0, 0, 1)
	case "this_week":
		daysUntilSunday := (7 - int(now.Weekday())) % 7
		if daysUntilSunday == 0 {
			daysUntilSunday = 7
		}
		due = now.AddDate(0, 0, daysUntilSunday)
	case "this_month":
		firstOfNextMonth := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
		due = firstOfNextMonth.AddDate(0, 0, -1)
	default:
		return ""
	}
	return due.Format("2006-01-02")
}

func (h *WebhookHandler) createTodoWithDeadline(ctx context.Context, replyToken, title, deadlineType string) error {
	dueDate := dueDateFor(deadlineType, h.now())

	task, err := h.store.Add(ctx, title, dueDate)
	if err != nil {
		log.Printf("Failed to add task %q: %v", title, err)
		return h.replyMessage(replyToken, "Failed to add the task.")
	}
	if task == nil {
		return h.replyMessage(replyToken, "Please give the task a title.")
	}

	deadlineText := "(no due date)"
	if task.DueDate != "" {
		deadlineText = fmt.Sprintf("(due %s)", task.DueDate)
	}

	return h.replyMessage(replyToken, fmt.Sprintf("✅ Added \"%s\" %s", task.Title, deadlineText))
}

func (h *WebhookHandler) showTodoList(replyToken, filterArg string) error {
	view := h.store.View()
	if filterArg != "" {
		filter, err := models.ParseFilter(strings.ToLower(filterArg))
		if err != nil {
			return h.replyMessage(replyToken, "Filter must be one of: all, active, completed.")
		}
		view, _ = h.store.SetFilter(filter)
	}

	if len(view.Tasks) == 0 {
		return h.replyMessage(replyToken, fmt.Sprintf("No tasks (%s).\n%s", view.Filter, view.Summary))
	}

	var todoItems []string
	for i, task := range view.Tasks {
		mark := "☐"
		if task.Completed {
			mark = "☑"
		}
		line := fmt.Sprintf("%d. %s %s", i+1, mark, task.Title)
		if task.DueDate != "" {
			line += fmt.Sprintf(" (due %s)", task.DueDate)
		}
		todoItems = append(todoItems, line)
	}

	todoText := strings.Join(todoItems, "\n")
	return h.replyMessage(replyToken, fmt.Sprintf("📝 Tasks (%s)\n\n%s\n\n%s", view.Filter, todoText, view.Summary))
}

// taskAt resolves a 1-based position in the current view.
func (h *WebhookHandler) taskAt(arg string) (models.Task, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return models.Task{}, false
	}
	view := h.store.View()
	if n < 1 || n > len(view.Tasks) {
		return models.Task{}, false
	}
	return view.Tasks[n-1], true
}

func (h *WebhookHandler) toggleTodo(ctx context.Context, replyToken, arg string) error {
	target, ok := h.taskAt(arg)
	if !ok {
		return h.replyMessage(replyToken, fmt.Sprintf("No task number %q. Send \"list\" to see numbers.", arg))
	}

	task, err := h.store.ToggleComplete(ctx, target.ID)
	if err != nil || task == nil {
		log.Printf("Failed to toggle task %s: %v", target.ID, err)
		return h.replyMessage(replyToken, "Failed to update the task.")
	}

	if task.Completed {
		return h.replyMessage(replyToken, fmt.Sprintf("🎉 Completed \"%s\"", task.Title))
	}
	return h.replyMessage(replyToken, fmt.Sprintf("↩️ Reopened \"%s\"", task.Title))
}

func (h *WebhookHandler) deleteTodo(ctx context.Context, replyToken, arg string) error {
	target, ok := h.taskAt(arg)
	if !ok {
		return h.replyMessage(replyToken, fmt.Sprintf("No task number %q. Send \"list\" to see numbers.", arg))
	}

	if _, err := h.store.Delete(ctx, target.ID); err != nil {
		log.Printf("Failed to delete task %s: %v", target.ID, err)
		return h.replyMessage(replyToken, "Failed to delete the task.")
	}

	return h.replyMessage(replyToken, fmt.Sprintf("🗑️ Deleted \"%s\"", target.Title))
}

// editTodo handles "edit <n> <title> | <YYYY-MM-DD>". The title or the date part
// may be left empty; an empty date clears the due date.
func (h *WebhookHandler) editTodo(ctx context.Context, replyToken, arg string) error {
	num, rest, _ := strings.Cut(arg, " ")
	target, ok := h.taskAt(num)
	if !ok {
		return h.replyMessage(replyToken, "Usage: edit <number> <title> | <YYYY-MM-DD>")
	}

	title, due, hasDue := strings.Cut(rest, "|")
	due = strings.TrimSpace(due)
	if !hasDue {
		due = target.DueDate
	}

	task, err := h.store.Edit(ctx, target.ID, title, due)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDueDate) {
			return h.replyMessage(replyToken, "Invalid date format. Use YYYY-MM-DD or leave blank.")
		}
		log.Printf("Failed to edit task %s: %v", target.ID, err)
		return h.replyMessage(replyToken, "Failed to edit the task.")
	}
	if task == nil {
		return h.replyMessage(replyToken, "That task no longer exists.")
	}

	return h.replyMessage(replyToken, fmt.Sprintf("✏️ Updated \"%s\"", task.Title))
}

func (h *WebhookHandler) askClearConfirmation(replyToken string) error {
	quickReply := &messaging_api.QuickReply{
		Items: []messaging_api.QuickReplyItem{
			{
				Action: &messaging_api.PostbackAction{
					Label:       "Yes",
					Data:        "clear_completed:yes",
					DisplayText: "Yes",
				},
			},
			{
				Action: &messaging_api.PostbackAction{
					Label:       "No",
					Data:        "clear_completed:no",
					DisplayText: "No",
				},
			},
		},
	}

	message := &messaging_api.TextMessage{
		Text:       "⚠️ Remove all completed tasks?",
		QuickReply: quickReply,
	}

	_, err := h.bot.ReplyMessage(
		&messaging_api.ReplyMessageRequest{
			ReplyToken: replyToken,
			Messages:   []messaging_api.MessageInterface{message},
		},
	)

	return err
}

func (h *WebhookHandler) handleClearConfirmation(ctx context.Context, replyToken, confirmation string) error {
	if confirmation != "yes" {
		return h.replyMessage(replyToken, "Cancelled.")
	}

	count, err := h.store.ClearCompleted(ctx)
	if err != nil {
		log.Printf("Failed to clear completed tasks: %v", err)
		return h.replyMessage(replyToken, "Failed to clear completed tasks.")
	}

	if count == 0 {
		return h.replyMessage(replyToken, "There were no completed tasks.")
	}

	return h.replyMessage(replyToken, fmt.Sprintf("🗑️ Removed %d completed task(s).", count))
}

func (h *WebhookHandler) showHelp(replyToken string) error {
	helpText := `📝 Todo Bot

🆕 Add a task:
・add <title>
・you will be asked for a due date

📋 Show tasks:
・list
・list active | completed | all

✅ Complete or reopen:
・toggle <number>

✏️ Edit:
・edit <number> <title> | <YYYY-MM-DD>
・leave the title empty to keep it, the date empty to clear it

🗑️ Delete:
・delete <number>
・clear (removes completed tasks)

Numbers refer to the last list you asked for.`

	return h.replyMessage(replyToken, helpText)
}

func (h *WebhookHandler) replyMessage(replyToken, text string) error {
	message := &messaging_api.TextMessage{
		Text: text,
	}

	_, err := h.bot.ReplyMessage(
		&messaging_api.ReplyMessageRequest{
			ReplyToken: replyToken,
			Messages:   []messaging_api.MessageInterface{message},
		},
	)

	if err != nil {
		log.Printf("Failed to send reply message: %v", err)
	}

	return err
}
