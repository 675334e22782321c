package daemon

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"renamer/internal/admission"
	"renamer/internal/logging"
	"renamer/internal/messaging"
	"renamer/internal/sequence"
	"renamer/internal/services"
)

// HandleFile routes one inbound file event. Users in sequence mode collect
// the file; everyone else goes through template validation and the
// admission queue. Duplicate submissions are dropped silently.
func (d *Daemon) HandleFile(ctx context.Context, in messaging.Incoming) error {
	if !d.running.Load() {
		return services.Wrap(services.ErrValidation, "daemon", "handle file", "daemon not running", nil)
	}
	log := logging.WithContext(ctx, d.logger)

	if d.sequences.Collecting(in.UserID) {
		count, _ := d.sequences.Add(in.UserID, sequence.Entry{
			FileName: in.FileName,
			Source:   in.Ref,
		})
		d.ack(ctx, in.Ref.ChatID, fmt.Sprintf("Added to sequence (%d collected).", count))
		return nil
	}

	userSettings, err := d.store.Get(ctx, in.UserID)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "handle file", "settings unavailable", err)
	}
	if userSettings.FormatTemplate == "" {
		d.ack(ctx, in.Ref.ChatID, "No rename template configured. Set one before sending files.")
		return services.Wrap(services.ErrValidation, "daemon", "handle file", "no format template configured", nil)
	}

	task := admission.NewTask(in)
	err = d.controller.Submit(task)
	switch {
	case errors.Is(err, services.ErrDuplicate):
		log.Debug("duplicate file dropped", logging.String(logging.FieldFilename, in.FileName))
		return nil
	case errors.Is(err, services.ErrQueueFull):
		d.ack(ctx, in.Ref.ChatID, "Queue is full, try again shortly.")
		return err
	case err != nil:
		return err
	}
	return nil
}

// StartSequence begins collect mode for a user.
func (d *Daemon) StartSequence(ctx context.Context, userID, chatID int64) error {
	if err := d.sequences.Start(userID); err != nil {
		d.ack(ctx, chatID, "A sequence is already collecting. End or cancel it first.")
		return err
	}
	d.ack(ctx, chatID, "Sequence started. Send files, then end the sequence to receive them in order.")
	return nil
}

// EndSequence flushes the user's collected files in episode order.
func (d *Daemon) EndSequence(ctx context.Context, userID, chatID int64) error {
	sent, err := d.sequences.Flush(ctx, userID, chatID)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			d.ack(ctx, chatID, "No sequence in progress.")
		}
		return err
	}
	if sent == 0 {
		d.ack(ctx, chatID, "Sequence ended with no files collected.")
	}
	return nil
}

// CancelSequence discards the user's session without replay.
func (d *Daemon) CancelSequence(ctx context.Context, userID, chatID int64) error {
	dropped, err := d.sequences.Cancel(userID)
	if err != nil {
		d.ack(ctx, chatID, "No sequence in progress.")
		return err
	}
	d.ack(ctx, chatID, fmt.Sprintf("Sequence canceled, %d files discarded.", dropped))
	return nil
}

// ClearQueue drops a user's pending tasks.
func (d *Daemon) ClearQueue(ctx context.Context, userID, chatID int64) int {
	n := d.controller.ClearUser(userID)
	d.ack(ctx, chatID, fmt.Sprintf("Removed %d queued files.", n))
	return n
}

// QueueStatus reports a user's active count and waiting filenames.
func (d *Daemon) QueueStatus(ctx context.Context, userID, chatID int64) {
	stats := d.controller.User(userID)
	if stats.Active == 0 && len(stats.Pending) == 0 {
		d.ack(ctx, chatID, "Queue is empty.")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d processing, %d waiting.", stats.Active, len(stats.Pending))
	for i, name := range stats.Pending {
		fmt.Fprintf(&b, "\n%d. %s", i+1, name)
	}
	d.ack(ctx, chatID, b.String())
}

// SequenceStatus reports the user's collecting session.
func (d *Daemon) SequenceStatus(ctx context.Context, userID, chatID int64) {
	status := d.sequences.Snapshot(userID)
	if !status.Active {
		d.ack(ctx, chatID, "No sequence in progress.")
		return
	}
	d.ack(ctx, chatID, fmt.Sprintf("Sequence collecting: %d files so far.", status.Count))
}

// SetTemplate stores the user's rename template.
func (d *Daemon) SetTemplate(ctx context.Context, userID, chatID int64, template string) error {
	template = strings.TrimSpace(template)
	if template == "" {
		d.ack(ctx, chatID, "Usage: send the template after the command, e.g. Show S{season}E{episode} [{quality}]")
		return services.Wrap(services.ErrValidation, "daemon", "set template", "empty template", nil)
	}
	if err := d.store.SetFormatTemplate(ctx, userID, template); err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "set template", "settings store update failed", err)
	}
	d.ack(ctx, chatID, "Template saved: "+template)
	return nil
}

// SetCaption stores the user's caption template. Empty clears it.
func (d *Daemon) SetCaption(ctx context.Context, userID, chatID int64, caption string) error {
	if err := d.store.SetCaption(ctx, userID, strings.TrimSpace(caption)); err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "set caption", "settings store update failed", err)
	}
	d.ack(ctx, chatID, "Caption saved.")
	return nil
}

// SetMediaPreference stores the preferred delivery kind. Empty clears it.
func (d *Daemon) SetMediaPreference(ctx context.Context, userID, chatID int64, preference string) error {
	if err := d.store.SetMediaPreference(ctx, userID, preference); err != nil {
		d.ack(ctx, chatID, "Unknown media kind. Use video, audio, photo, or document.")
		return services.Wrap(services.ErrValidation, "daemon", "set media preference", "unknown kind", err)
	}
	d.ack(ctx, chatID, "Media preference saved.")
	return nil
}

// SetMetadata toggles tag injection on or off.
func (d *Daemon) SetMetadata(ctx context.Context, userID, chatID int64, arg string) error {
	var enabled bool
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		d.ack(ctx, chatID, "Usage: on or off.")
		return services.Wrap(services.ErrValidation, "daemon", "set metadata", "expected on or off", nil)
	}
	if err := d.store.SetMetadataEnabled(ctx, userID, enabled); err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "set metadata", "settings store update failed", err)
	}
	if enabled {
		d.ack(ctx, chatID, "Metadata tagging enabled.")
	} else {
		d.ack(ctx, chatID, "Metadata tagging disabled.")
	}
	return nil
}

// SetDestination routes deliveries to another chat. Empty clears it.
func (d *Daemon) SetDestination(ctx context.Context, userID, chatID int64, arg string) error {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		if err := d.store.ClearDestination(ctx, userID); err != nil {
			return services.Wrap(services.ErrConfiguration, "daemon", "set destination", "settings store update failed", err)
		}
		d.ack(ctx, chatID, "Destination cleared, files go back to the source chat.")
		return nil
	}
	dest, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		d.ack(ctx, chatID, "Destination must be a numeric chat id.")
		return services.Wrap(services.ErrValidation, "daemon", "set destination", "invalid chat id", err)
	}
	if err := d.store.SetDestination(ctx, userID, dest); err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "set destination", "settings store update failed", err)
	}
	d.ack(ctx, chatID, fmt.Sprintf("Destination set to %d.", dest))
	return nil
}

// ShowSettings replies with the user's current configuration.
func (d *Daemon) ShowSettings(ctx context.Context, userID, chatID int64) error {
	s, err := d.store.Get(ctx, userID)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "show settings", "settings unavailable", err)
	}
	display := func(v string) string {
		if v == "" {
			return "(not set)"
		}
		return v
	}
	metadata := "off"
	if s.MetadataEnabled {
		metadata = "on"
	}
	destination := "(source chat)"
	if s.Destination != 0 {
		destination = fmt.Sprintf("%d", s.Destination)
	}
	text := fmt.Sprintf(
		"Template: %s\nCaption: %s\nMedia kind: %s\nMetadata tags: %s\nThumbnail: %s\nDestination: %s",
		display(s.FormatTemplate),
		display(s.CaptionTemplate),
		display(s.MediaPreference),
		metadata,
		display(s.ThumbnailRef),
		destination,
	)
	d.ack(ctx, chatID, text)
	return nil
}

// ack sends a short reply, swallowing transport errors; acknowledgements
// are best-effort.
func (d *Daemon) ack(ctx context.Context, chatID int64, text string) {
	if chatID == 0 {
		return
	}
	if _, err := d.client.SendText(ctx, chatID, text); err != nil {
		d.logger.Warn("acknowledgement failed", logging.Error(err))
	}
}
