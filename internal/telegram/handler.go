package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/dealhound/dealhound/internal/domain"
	"github.com/dealhound/dealhound/internal/source"
)

const maxMessageLength = 4096

const welcomeMessage = `<b>Dealhound</b> — second-hand deal search across UK marketplaces.

Send me what you are looking for, or use /find:

/find strymon ob-1 --uk
/find fender stratocaster --sources ebay --strict
/sources — list available marketplaces
/help — full option reference`

const helpMessage = `<b>How to search</b>

Just send a message with the item name, or use /find with options:

<code>/find strymon ob-1 --uk --strict</code>

Options:
--uk — keep UK listings only
--strict — strongest relevance filtering
--sources a,b — search only these marketplaces
--pages n — pages fetched per source
--location town — prefer listings near this place

Results are ranked by relevance, price sanity and freshness.`

// Handler routes incoming messages to commands and runs searches.
type Handler struct {
	bot *Bot
}

func NewHandler(bot *Bot) *Handler {
	return &Handler{bot: bot}
}

func (h *Handler) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message == nil || message.Chat == nil {
		return
	}

	chatID := message.Chat.ID

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			h.reply(chatID, welcomeMessage)
		case "help":
			h.reply(chatID, helpMessage)
		case "sources":
			h.reply(chatID, FormatSourcesList(h.bot.registry.Names()))
		case "find":
			h.handleSearch(ctx, message, message.CommandArguments())
		default:
			h.reply(chatID, "Unknown command. Try /help.")
		}
		return
	}

	// Plain text is a search.
	h.handleSearch(ctx, message, message.Text)
}

func (h *Handler) handleSearch(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	userKey := userKey(message)

	if !h.bot.rateLimiter.Allow(userKey) {
		h.bot.RecordRateLimitHit(userID(message))
		wait := time.Until(h.bot.rateLimiter.ResetTime(userKey))
		h.reply(chatID, fmt.Sprintf("Too many searches. Try again in %d seconds.", int(wait.Seconds())+1))
		return
	}

	req, err := ParseFindCommand(args)
	if err != nil {
		h.reply(chatID, "Could not parse the command. Check /help for options.")
		return
	}

	h.bot.SendTyping(chatID)

	start := time.Now()
	result, err := h.bot.search.Search(ctx, req)
	if err != nil {
		h.bot.logger.Warn("search failed",
			zap.String("term", req.Term),
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		h.reply(chatID, searchErrorMessage(err))
		return
	}

	h.bot.logger.Info("search served",
		zap.String("term", req.Term),
		zap.Int64("chat_id", chatID),
		zap.Int("listings", len(result.Listings)),
		zap.Duration("elapsed", time.Since(start)),
	)

	for _, part := range SplitMessage(FormatSearchResult(result), maxMessageLength) {
		h.reply(chatID, part)
	}
}

func (h *Handler) reply(chatID int64, text string) {
	if err := h.bot.Send(chatID, text); err != nil {
		h.bot.logger.Error("send message failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func searchErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyTerm):
		return "Tell me what to search for, e.g. <code>/find strymon ob-1</code>."
	case errors.Is(err, domain.ErrTermTooLong):
		return fmt.Sprintf("That search is too long. Keep it under %d characters.", domain.MaxTermLength)
	case errors.Is(err, source.ErrNotFound):
		return "One of the requested sources is unknown. See /sources."
	case errors.Is(err, domain.ErrNoSources):
		return "No marketplaces are configured right now. Try again later."
	case errors.Is(err, context.DeadlineExceeded):
		return "The search took too long. Try a narrower term or fewer sources."
	default:
		return "Something went wrong running the search. Try again in a minute."
	}
}

func userKey(message *tgbotapi.Message) string {
	return "user:" + strconv.FormatInt(userID(message), 10)
}

func userID(message *tgbotapi.Message) int64 {
	if message.From != nil {
		return message.From.ID
	}
	return message.Chat.ID
}
