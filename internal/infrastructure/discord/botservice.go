package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"warden/internal/application/modmail/usecases"
	sharedConfig "warden/internal/shared/config"
)

const apiBaseURL = "https://discord.com/api/v10"

// Channel types as defined by the Discord API.
const (
	channelTypeGuildText     = 0
	channelTypeDM            = 1
	channelTypeGuildVoice    = 2
	channelTypeGroupDM       = 3
	channelTypeAnnouncement  = 5
	channelTypePrivateThread = 12
)

// Permission bits the bot needs on the modmail parent channel.
const (
	permViewChannel           uint64 = 1 << 10
	permManageThreads         uint64 = 1 << 34
	permCreatePrivateThreads  uint64 = 1 << 36
	permSendMessagesInThreads uint64 = 1 << 38
)

// BotService provides Discord REST API operations. It implements the
// transport boundary of the modmail use cases.
type BotService struct {
	config     sharedConfig.DiscordConfig
	httpClient *http.Client
	baseURL    string

	botUserID string // Cached bot user ID from /users/@me

	dmMu       sync.Mutex
	dmChannels map[string]string // userID -> DM channel ID
}

var _ usecases.Transport = (*BotService)(nil)

// NewBotService creates a new Discord bot service
func NewBotService(config sharedConfig.DiscordConfig) *BotService {
	s := &BotService{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    apiBaseURL,
		dmChannels: make(map[string]string),
	}
	// Fetch and cache the bot's own user ID on initialization
	if config.BotToken != "" {
		_ = s.fetchBotUser()
	}
	return s
}

// BotUserID returns the cached bot user ID
func (s *BotService) BotUserID() string {
	return s.botUserID
}

// SendDirect sends a message to the user's DM channel, creating the
// channel on first use.
func (s *BotService) SendDirect(ctx context.Context, userID string, payload usecases.OutboundPayload) (string, error) {
	channelID, err := s.dmChannelFor(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.sendMessage(ctx, channelID, payload)
}

// SendToThread sends a message into a staff thread
func (s *BotService) SendToThread(ctx context.Context, threadRef string, payload usecases.OutboundPayload) (string, error) {
	return s.sendMessage(ctx, threadRef, payload)
}

// CreateThread creates a private thread under the given channel
func (s *BotService) CreateThread(ctx context.Context, channelRef string, params usecases.ThreadParams) (string, error) {
	url := fmt.Sprintf("%s/channels/%s/threads", s.baseURL, channelRef)
	body := map[string]any{
		"name":      params.Name,
		"type":      channelTypePrivateThread,
		"invitable": params.Invitable,
	}

	var result channelPayload
	if err := s.makeRequest(ctx, http.MethodPost, url, body, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// SetThreadArchived archives or unarchives a thread
func (s *BotService) SetThreadArchived(ctx context.Context, threadRef string, archived bool) error {
	url := fmt.Sprintf("%s/channels/%s", s.baseURL, threadRef)
	body := map[string]any{"archived": archived}
	return s.makeRequest(ctx, http.MethodPatch, url, body, nil)
}

// SetThreadLocked locks or unlocks a thread
func (s *BotService) SetThreadLocked(ctx context.Context, threadRef string, locked bool) error {
	url := fmt.Sprintf("%s/channels/%s", s.baseURL, threadRef)
	body := map[string]any{"locked": locked}
	return s.makeRequest(ctx, http.MethodPatch, url, body, nil)
}

// FetchUser retrieves a user's public profile
func (s *BotService) FetchUser(ctx context.Context, userID string) (*usecases.UserProfile, error) {
	url := fmt.Sprintf("%s/users/%s", s.baseURL, userID)

	var result userPayload
	if err := s.makeRequest(ctx, http.MethodGet, url, nil, &result); err != nil {
		return nil, err
	}

	return &usecases.UserProfile{
		ID:          result.ID,
		DisplayName: result.displayName(),
		AvatarURL:   result.avatarURL(),
		IsBot:       result.Bot,
	}, nil
}

// FetchChannel retrieves channel metadata
func (s *BotService) FetchChannel(ctx context.Context, channelRef string) (*usecases.ChannelInfo, error) {
	url := fmt.Sprintf("%s/channels/%s", s.baseURL, channelRef)

	var result channelPayload
	if err := s.makeRequest(ctx, http.MethodGet, url, nil, &result); err != nil {
		return nil, err
	}

	return &usecases.ChannelInfo{
		Ref:             result.ID,
		Kind:            channelKindName(result.Type),
		IsDM:            result.Type == channelTypeDM || result.Type == channelTypeGroupDM,
		SupportsThreads: result.Type == channelTypeGuildText || result.Type == channelTypeAnnouncement,
	}, nil
}

// MissingCapabilitiesFor checks the bot's guild-level permissions against
// what modmail needs on the parent channel. Channel-level overwrites are
// not evaluated; a denied overwrite surfaces later as a transport failure.
func (s *BotService) MissingCapabilitiesFor(ctx context.Context, channelRef string) ([]string, error) {
	perms, err := s.botGuildPermissions(ctx)
	if err != nil {
		return nil, err
	}

	required := []struct {
		bit  uint64
		name string
	}{
		{permViewChannel, "VIEW_CHANNEL"},
		{permCreatePrivateThreads, "CREATE_PRIVATE_THREADS"},
		{permSendMessagesInThreads, "SEND_MESSAGES_IN_THREADS"},
		{permManageThreads, "MANAGE_THREADS"},
	}

	var missing []string
	for _, r := range required {
		if perms&r.bit == 0 {
			missing = append(missing, r.name)
		}
	}
	return missing, nil
}

// EnsureThreadAccess adds the staff role's members to the thread by
// posting a silent mention, which is how private threads grant role
// visibility without per-member invites.
func (s *BotService) EnsureThreadAccess(ctx context.Context, threadRef, roleID string) error {
	url := fmt.Sprintf("%s/channels/%s/messages", s.baseURL, threadRef)
	body := map[string]any{
		"content": fmt.Sprintf("<@&%s>", roleID),
		"allowed_mentions": map[string]any{
			"parse": []string{"roles"},
		},
		"flags": 1 << 12, // SUPPRESS_NOTIFICATIONS
	}
	return s.makeRequest(ctx, http.MethodPost, url, body, nil)
}

func (s *BotService) dmChannelFor(ctx context.Context, userID string) (string, error) {
	s.dmMu.Lock()
	channelID, ok := s.dmChannels[userID]
	s.dmMu.Unlock()
	if ok {
		return channelID, nil
	}

	url := fmt.Sprintf("%s/users/@me/channels", s.baseURL)
	body := map[string]any{"recipient_id": userID}

	var result channelPayload
	if err := s.makeRequest(ctx, http.MethodPost, url, body, &result); err != nil {
		return "", fmt.Errorf("failed to open DM channel: %w", err)
	}

	s.dmMu.Lock()
	s.dmChannels[userID] = result.ID
	s.dmMu.Unlock()

	return result.ID, nil
}

func (s *BotService) sendMessage(ctx context.Context, channelID string, payload usecases.OutboundPayload) (string, error) {
	url := fmt.Sprintf("%s/channels/%s/messages", s.baseURL, channelID)

	body := map[string]any{}
	if payload.AuthorName != "" {
		// The author block carries attribution (or the community identity)
		// since a bot cannot change its own display name per message.
		embed := map[string]any{
			"author": map[string]any{
				"name":     payload.AuthorName,
				"icon_url": payload.AuthorIcon,
			},
			"description": payload.Content,
		}
		if payload.ImageURL != "" {
			embed["image"] = map[string]any{"url": payload.ImageURL}
		}
		body["embeds"] = []any{embed}
	} else {
		body["content"] = payload.Content
	}
	if payload.ReplyToRef != "" {
		body["message_reference"] = map[string]any{
			"message_id":         payload.ReplyToRef,
			"fail_if_not_exists": false,
		}
	}

	var result messagePayload
	if err := s.makeRequest(ctx, http.MethodPost, url, body, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

func (s *BotService) botGuildPermissions(ctx context.Context) (uint64, error) {
	memberURL := fmt.Sprintf("%s/guilds/%s/members/@me", s.baseURL, s.config.GuildID)
	var member memberPayload
	if err := s.makeRequest(ctx, http.MethodGet, memberURL, nil, &member); err != nil {
		return 0, fmt.Errorf("failed to fetch bot member: %w", err)
	}

	rolesURL := fmt.Sprintf("%s/guilds/%s/roles", s.baseURL, s.config.GuildID)
	var roles []rolePayload
	if err := s.makeRequest(ctx, http.MethodGet, rolesURL, nil, &roles); err != nil {
		return 0, fmt.Errorf("failed to fetch guild roles: %w", err)
	}

	held := make(map[string]bool, len(member.Roles))
	for _, id := range member.Roles {
		held[id] = true
	}

	var perms uint64
	for _, role := range roles {
		// The @everyone role shares its ID with the guild and applies to all.
		if !held[role.ID] && role.ID != s.config.GuildID {
			continue
		}
		p, err := strconv.ParseUint(role.Permissions, 10, 64)
		if err != nil {
			continue
		}
		perms |= p
	}
	return perms, nil
}

func (s *BotService) fetchBotUser() error {
	url := fmt.Sprintf("%s/users/@me", s.baseURL)
	var result userPayload
	if err := s.makeRequest(context.Background(), http.MethodGet, url, nil, &result); err != nil {
		return err
	}
	s.botUserID = result.ID
	return nil
}

func (s *BotService) makeRequest(ctx context.Context, method, url string, body map[string]any, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+s.config.BotToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiErrorPayload
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("discord API error %d: %s (code %d)", resp.StatusCode, apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("discord API error: status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type apiErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type channelPayload struct {
	ID   string `json:"id"`
	Type int    `json:"type"`
	Name string `json:"name,omitempty"`
}

type messagePayload struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

type userPayload struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	GlobalName    string `json:"global_name,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Discriminator string `json:"discriminator,omitempty"`
	Bot           bool   `json:"bot,omitempty"`
}

func (u userPayload) displayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func (u userPayload) avatarURL() string {
	if u.Avatar == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", u.ID, u.Avatar)
}

type memberPayload struct {
	Roles []string     `json:"roles"`
	User  *userPayload `json:"user,omitempty"`
}

type rolePayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Permissions string `json:"permissions"`
}

func channelKindName(t int) string {
	switch t {
	case channelTypeGuildText:
		return "guild_text"
	case channelTypeDM:
		return "dm"
	case channelTypeGuildVoice:
		return "guild_voice"
	case channelTypeGroupDM:
		return "group_dm"
	case channelTypeAnnouncement:
		return "announcement"
	case channelTypePrivateThread:
		return "private_thread"
	default:
		return fmt.Sprintf("unknown_%d", t)
	}
}
