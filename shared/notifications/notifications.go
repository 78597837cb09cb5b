package notifications

import (
	"context"
	"fmt"
	"log"
	"pagefun/shared/env"
	"time"

	"github.com/mymmrac/telego"
	"golang.org/x/time/rate"
)

var bot *telego.Bot
var isInitialized bool = false
var telegramLimiter *rate.Limiter

// InitTelegramBot connects the ops-notification bot. Notifications are
// optional; callers should treat an error here as "run without Telegram".
func InitTelegramBot() error {
	if isInitialized && bot != nil {
		log.Println("INFO: Telegram bot already initialized.")
		return nil
	}

	isInitialized = false
	bot = nil
	telegramLimiter = nil

	botToken := env.TelegramBotToken
	groupID := env.TelegramGroupID

	if botToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN missing from env configuration")
	}
	if groupID == 0 {
		return fmt.Errorf("TELEGRAM_GROUP_ID missing or invalid in env configuration")
	}

	log.Println("Initializing Telegram bot API...")
	var err error
	bot, err = telego.NewBot(botToken)
	if err != nil {
		bot = nil
		return fmt.Errorf("failed to initialize Telegram bot API: %w", err)
	}

	log.Println("Verifying bot token with Telegram API (GetMe)...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	userInfo, err := bot.GetMe(ctx)
	if err != nil {
		bot = nil
		return fmt.Errorf("failed to verify bot token with GetMe API call: %w", err)
	}

	isInitialized = true
	telegramLimiter = rate.NewLimiter(rate.Limit(0.2), 1)
	log.Printf("Telegram bot initialized successfully for @%s", userInfo.Username)
	log.Printf("Telegram rate limiter initialized (1 msg / 5 sec)")

	SendSystemLogMessage(fmt.Sprintf("pagefun API connected (@%s). Ready.", userInfo.Username))
	return nil
}

// GetBotInstance returns the bot, or nil when notifications are disabled.
func GetBotInstance() *telego.Bot {
	if !isInitialized || bot == nil {
		return nil
	}
	return bot
}

// SendTelegramMessage posts to the main ops group.
func SendTelegramMessage(message string) {
	sendMessageWithRetry(env.TelegramGroupID, 0, message)
}

// SendSystemLogMessage posts to the system-logs topic of the ops group.
func SendSystemLogMessage(message string) {
	sendMessageWithRetry(env.TelegramGroupID, env.SystemLogsThreadID, message)
}

func sendMessageWithRetry(chatID int64, messageThreadID int, text string) {
	if bot == nil {
		return
	}
	if chatID == 0 {
		log.Println("ERROR: Cannot send Telegram message, target chatID is 0.")
		return
	}
	if telegramLimiter != nil {
		if err := telegramLimiter.Wait(context.Background()); err != nil {
			log.Printf("ERROR: Telegram rate limiter wait error for chat %d: %v. Proceeding with send attempt...", chatID, err)
		}
	}

	params := &telego.SendMessageParams{
		ChatID:          telego.ChatID{ID: chatID},
		Text:            text,
		MessageThreadID: messageThreadID,
	}

	const maxAttempts = 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, err := bot.SendMessage(ctx, params)
		cancel()
		if err == nil {
			return
		}
		log.Printf("WARN: Telegram send failed (attempt %d/%d) for chat %d: %v", attempt, maxAttempts, chatID, err)
		if attempt < maxAttempts {
			time.Sleep(time.Duration(attempt*attempt) * time.Second)
		}
	}
	log.Printf("ERROR: Giving up sending Telegram message to chat %d after %d attempts.", chatID, maxAttempts)
}
