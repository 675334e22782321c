package botapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"renamer/internal/messaging"
	"renamer/internal/naming"
)

// Update is one inbound event from long polling: either a media message
// ready for renaming or a slash command.
type Update struct {
	ID       int64
	ChatID   int64
	UserID   int64
	Command  string
	Args     string
	Incoming *messaging.Incoming
}

type rawUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64 `json:"message_id"`
		From      struct {
			ID int64 `json:"id"`
		} `json:"from"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text     string   `json:"text"`
		Document *rawFile `json:"document"`
		Video    *rawFile `json:"video"`
		Audio    *rawFile `json:"audio"`
	} `json:"message"`
}

type rawFile struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

// Poll long-polls for updates past offset. It returns when the server
// responds or the context is cancelled.
func (c *Client) Poll(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(timeoutSeconds))
	params.Set("allowed_updates", `["message"]`)
	raw, err := c.callLongPoll(ctx, "getUpdates", params)
	if err != nil {
		return nil, err
	}
	var rawUpdates []rawUpdate
	if err := json.Unmarshal(raw, &rawUpdates); err != nil {
		return nil, fmt.Errorf("decode getUpdates result: %w", err)
	}

	updates := make([]Update, 0, len(rawUpdates))
	for _, ru := range rawUpdates {
		update := Update{ID: ru.UpdateID}
		if ru.Message == nil {
			updates = append(updates, update)
			continue
		}
		update.ChatID = ru.Message.Chat.ID
		update.UserID = ru.Message.From.ID

		if text := strings.TrimSpace(ru.Message.Text); strings.HasPrefix(text, "/") {
			command, rest, _ := strings.Cut(text, " ")
			command, _, _ = strings.Cut(command, "@")
			update.Command = strings.ToLower(command)
			update.Args = strings.TrimSpace(rest)
		}

		if incoming := mediaFrom(ru); incoming != nil {
			incoming.Ref = messaging.Ref{
				ChatID:    ru.Message.Chat.ID,
				MessageID: ru.Message.MessageID,
				FileRef:   incoming.Ref.FileRef,
			}
			incoming.UserID = ru.Message.From.ID
			update.Incoming = incoming
		}
		updates = append(updates, update)
	}
	return updates, nil
}

// callLongPoll is call without the request timeout, for getUpdates.
func (c *Client) callLongPoll(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s?%s", c.baseURL, c.token, method, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	resp, err := c.transferClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	return decodeEnvelope(method, resp.Body)
}

func mediaFrom(ru rawUpdate) *messaging.Incoming {
	var file *rawFile
	var kind naming.Kind
	switch {
	case ru.Message.Video != nil:
		file, kind = ru.Message.Video, naming.KindVideo
	case ru.Message.Audio != nil:
		file, kind = ru.Message.Audio, naming.KindAudio
	case ru.Message.Document != nil:
		file = ru.Message.Document
		kind = naming.KindOf(file.FileName)
	default:
		return nil
	}
	name := file.FileName
	if name == "" {
		name = file.FileID
	}
	return &messaging.Incoming{
		Ref:      messaging.Ref{FileRef: file.FileID},
		FileName: name,
		FileSize: file.FileSize,
		Kind:     kind,
	}
}
