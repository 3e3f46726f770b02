package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/easydayai/daisy-engine/pkg/auth"
	"github.com/easydayai/daisy-engine/pkg/llm"
	"github.com/easydayai/daisy-engine/pkg/models"
	"github.com/easydayai/daisy-engine/pkg/repositories"
)

// Credit cost per invocation. Reads are free; writes cost one credit.
const (
	CostFree  int64 = 0
	CostWrite int64 = 1
)

// assistantTools implements the handlers behind the assistant tool catalog.
type assistantTools struct {
	profileRepo         repositories.ProfileRepository
	appointmentTypeRepo repositories.AppointmentTypeRepository
	availabilityRepo    repositories.AvailabilityRepository
	bookingRepo         repositories.BookingRepository
	themeRepo           repositories.ThemeRepository
	reminderRepo        repositories.ReminderRepository
	creditsRepo         repositories.CreditsRepository
	logger              *zap.Logger
}

// AssistantToolsConfig holds dependencies for building the assistant registry.
type AssistantToolsConfig struct {
	ProfileRepo         repositories.ProfileRepository
	AppointmentTypeRepo repositories.AppointmentTypeRepository
	AvailabilityRepo    repositories.AvailabilityRepository
	BookingRepo         repositories.BookingRepository
	ThemeRepo           repositories.ThemeRepository
	ReminderRepo        repositories.ReminderRepository
	CreditsRepo         repositories.CreditsRepository
	Logger              *zap.Logger
}

// NewAssistantRegistry builds the full tool catalog. navigate_internal is the
// only tool available to anonymous sessions.
func NewAssistantRegistry(cfg *AssistantToolsConfig) *Registry {
	t := &assistantTools{
		profileRepo:         cfg.ProfileRepo,
		appointmentTypeRepo: cfg.AppointmentTypeRepo,
		availabilityRepo:    cfg.AvailabilityRepo,
		bookingRepo:         cfg.BookingRepo,
		themeRepo:           cfg.ThemeRepo,
		reminderRepo:        cfg.ReminderRepo,
		creditsRepo:         cfg.CreditsRepo,
		logger:              cfg.Logger,
	}

	registry := NewRegistry(cfg.Logger)

	registry.Register(&ToolSpec{
		Definition: llm.NewToolDefinition(
			"navigate_internal",
			"Navigate the user to an internal page of the application",
			map[string]llm.ParameterProperty{
				"path": {
					Type:        "string",
					Description: "Internal path to navigate to, e.g. /pricing or /settings/availability",
				},
				"label": {
					Type:        "string",
					Description: "Short human-readable label for the destination",
				},
			},
			[]string{"path"},
		),
		CreditCost:   CostFree,
		RequiresAuth: false,
		Handler:      t.navigateInternal,
	})

	registry.Register(&ToolSpec{
		Definition: llm.NewToolDefinition(
			"get_profile",
			"Get the operator's profile: name, business name, and booking page slug",
			map[string]llm.ParameterProperty{},
			[]string{},
		),
		CreditCost:   CostFree,
		RequiresAuth: true,
		Handler:      t.getProfile,
	})

	registry.Register(&ToolSpec{
		Definition: llm.NewToolDefinition(
			"list_appointment_types",
			"List the operator's active appointment types",
			map[string]llm.ParameterProperty{},
			[]string{},
		),
		CreditCost:   CostFree,
		RequiresAuth: true,
		Handler:      t.listAppointmentTypes,
	})

	registry.Register(&ToolSpec{
		Definition: llm.NewToolDefinition(
			"get_availability",
			"Get the operator's weekly availability windows",
			map[string]llm.ParameterProperty{},
			[]string{},
		),
		CreditCost:   CostFree,
		RequiresAuth: true,
		Handler:      t.getAvailability,
	})

	registry.Register(&ToolSpec{
		Definition: llm.NewToolDefinition(
			"list_bookings",
			"List the operator's upcoming confirmed bookings",
			map[string]llm.ParameterProperty{
				"limit": {
					Type:        "integer",
					Description: "Maximum number of bookings to return (default 20)",
				},
			},
			[]string{},
		),
		CreditCost:   CostFree,
		RequiresAuth: true,
		Handler:      t.listBookings,
	})

	registry.Register(&ToolSpec{
		Definition: llm.NewToolDefinition(
			"get_theme",
			"Get the operator's booking page theme settings",
			map[string]llm.ParameterProperty{},
			[]string{},
		),
		CreditCost:   CostFree,
		RequiresAuth: true,
		Handler:      t.getTheme,
	})

	registry.Register(&ToolSpec{
		Definition: llm.NewToolDefinition(
			"get_credits_balance",
			"Get the operator's current credit balance",
			map[string]llm.ParameterProperty{},
			[]string{},
		),
		CreditCost:   CostFree,
		RequiresAuth: true,
		Handler:      t.getCreditsBalance,
	})

	registry.Register(&ToolSpec{
		Definition: llm.NewToolDefinition(
			"create_appointment_type",
			"Create a new bookable appointment type for the operator. Costs 1 credit.",
			map[string]llm.ParameterProperty{
				"name": {
					Type:        "string",
					Description: "Name of the appointment type, e.g. '60 minute massage'",
				},
				"duration_minutes": {
					Type:        "integer",
					Description: "Duration of one appointment in minutes",
				},
				"price_cents": {
					Type:        "integer",
					Description: "Optional price in cents",
				},
				"description": {
					Type:        "string",
					Description: "Optional customer-facing description",
				},
			},
			[]string{"name", "duration_minutes"},
		),
		CreditCost:   CostWrite,
		RequiresAuth: true,
		Handler:      t.createAppointmentType,
	})

	registry.Register(&ToolSpec{
		Definition: llm.NewToolDefinition(
			"set_availability",
			"Set the operator's availability window for one weekday. Costs 1 credit.",
			map[string]llm.ParameterProperty{
				"weekday": {
					Type:        "integer",
					Description: "Day of week, 0 = Sunday through 6 = Saturday",
				},
				"start_time": {
					Type:        "string",
					Description: "Window start in 24h HH:MM format",
				},
				"end_time": {
					Type:        "string",
					Description: "Window end in 24h HH:MM format",
				},
			},
			[]string{"weekday", "start_time", "end_time"},
		),
		CreditCost:   CostWrite,
		RequiresAuth: true,
		Handler:      t.setAvailability,
	})

	registry.Register(&ToolSpec{
		Definition: llm.NewToolDefinition(
			"update_theme",
			"Update the operator's booking page theme. Costs 1 credit.",
			map[string]llm.ParameterProperty{
				"primary_color": {
					Type:        "string",
					Description: "Primary color as a hex value, e.g. #336699",
				},
				"background_color": {
					Type:        "string",
					Description: "Background color as a hex value",
				},
				"font_family": {
					Type:        "string",
					Description: "Font family name",
				},
				"logo_url": {
					Type:        "string",
					Description: "URL of the operator's logo image",
				},
			},
			[]string{},
		),
		CreditCost:   CostWrite,
		RequiresAuth: true,
		Handler:      t.updateTheme,
	})

	registry.Register(&ToolSpec{
		Definition: llm.NewToolDefinition(
			"configure_reminders",
			"Configure booking reminders for one channel. Costs 1 credit.",
			map[string]llm.ParameterProperty{
				"channel": {
					Type:        "string",
					Description: "Reminder channel",
					Enum:        []string{models.ReminderChannelEmail, models.ReminderChannelSMS},
				},
				"offset_minutes": {
					Type:        "integer",
					Description: "How many minutes before the booking to send the reminder",
				},
				"is_active": {
					Type:        "boolean",
					Description: "Whether reminders on this channel are enabled (default true)",
				},
			},
			[]string{"channel", "offset_minutes"},
		),
		CreditCost:   CostWrite,
		RequiresAuth: true,
		Handler:      t.configureReminders,
	})

	return registry
}

// ============================================================================
// Tool: navigate_internal
// ============================================================================

type navigateInternalArgs struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// navigateInternal is pure: it validates the path and echoes the directive.
// The orchestrator turns successful calls into client navigate actions.
func (t *assistantTools) navigateInternal(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
	var args navigateInternalArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return errorResult("Invalid arguments"), nil
	}

	if args.Path == "" || !strings.HasPrefix(args.Path, "/") {
		return errorResult("path must be an internal path starting with /"), nil
	}

	return marshalResult(map[string]any{
		"navigating": true,
		"path":       args.Path,
		"label":      args.Label,
	})
}

// ============================================================================
// Tool: get_profile
// ============================================================================

func (t *assistantTools) getProfile(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
	profile, err := t.profileRepo.GetByUserID(ctx, identity.UserID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return errorResult("Profile not found"), nil
	}

	return marshalResult(map[string]any{
		"full_name":     profile.FullName,
		"business_name": profile.BusinessName,
		"slug":          profile.Slug,
	})
}

// ============================================================================
// Tool: list_appointment_types
// ============================================================================

func (t *assistantTools) listAppointmentTypes(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
	types, err := t.appointmentTypeRepo.ListByUser(ctx, identity.UserID)
	if err != nil {
		return "", err
	}

	return marshalResult(map[string]any{
		"appointment_types": types,
		"count":             len(types),
	})
}

// ============================================================================
// Tool: get_availability
// ============================================================================

func (t *assistantTools) getAvailability(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
	rules, err := t.availabilityRepo.ListByUser(ctx, identity.UserID)
	if err != nil {
		return "", err
	}

	return marshalResult(map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

// ============================================================================
// Tool: list_bookings
// ============================================================================

type listBookingsArgs struct {
	Limit int `json:"limit"`
}

func (t *assistantTools) listBookings(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
	var args listBookingsArgs
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return errorResult("Invalid arguments"), nil
		}
	}

	bookings, err := t.bookingRepo.ListUpcoming(ctx, identity.UserID, time.Now(), args.Limit)
	if err != nil {
		return "", err
	}

	return marshalResult(map[string]any{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// ============================================================================
// Tool: get_theme
// ============================================================================

func (t *assistantTools) getTheme(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
	settings, err := t.themeRepo.GetByUser(ctx, identity.UserID)
	if err != nil {
		return "", err
	}
	if settings == nil {
		return marshalResult(map[string]any{"configured": false})
	}

	return marshalResult(map[string]any{
		"configured":       true,
		"primary_color":    settings.PrimaryColor,
		"background_color": settings.BackgroundColor,
		"font_family":      settings.FontFamily,
		"logo_url":         settings.LogoURL,
	})
}

// ============================================================================
// Tool: get_credits_balance
// ============================================================================

func (t *assistantTools) getCreditsBalance(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
	balance, err := t.creditsRepo.GetBalance(ctx, identity.UserID)
	if err != nil {
		return "", err
	}

	return marshalResult(map[string]any{
		"balance_credits": balance,
	})
}

// ============================================================================
// Tool: create_appointment_type
// ============================================================================

type createAppointmentTypeArgs struct {
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	PriceCents      *int64  `json:"price_cents"`
	Description     *string `json:"description"`
}

func (t *assistantTools) createAppointmentType(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
	var args createAppointmentTypeArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return errorResult("Invalid arguments"), nil
	}

	if args.Name == "" {
		return errorResult("name is required"), nil
	}
	if args.DurationMinutes <= 0 {
		return errorResult("duration_minutes must be positive"), nil
	}
	if args.PriceCents != nil && *args.PriceCents < 0 {
		return errorResult("price_cents must not be negative"), nil
	}

	at := &models.AppointmentType{
		UserID:          identity.UserID,
		Name:            args.Name,
		DurationMinutes: args.DurationMinutes,
		PriceCents:      args.PriceCents,
		Description:     args.Description,
		IsActive:        true,
	}
	if err := t.appointmentTypeRepo.Create(ctx, at); err != nil {
		return "", err
	}

	return marshalResult(map[string]any{
		"created": true,
		"id":      at.ID,
		"name":    at.Name,
	})
}

// ============================================================================
// Tool: set_availability
// ============================================================================

type setAvailabilityArgs struct {
	Weekday   int    `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (t *assistantTools) setAvailability(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
	var args setAvailabilityArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return errorResult("Invalid arguments"), nil
	}

	if args.Weekday < 0 || args.Weekday > 6 {
		return errorResult("weekday must be between 0 (Sunday) and 6 (Saturday)"), nil
	}
	start, err := time.Parse("15:04", args.StartTime)
	if err != nil {
		return errorResult("start_time must be in 24h HH:MM format"), nil
	}
	end, err := time.Parse("15:04", args.EndTime)
	if err != nil {
		return errorResult("end_time must be in 24h HH:MM format"), nil
	}
	if !end.After(start) {
		return errorResult("end_time must be after start_time"), nil
	}

	// One rule per weekday: probe, then insert or update.
	existing, err := t.availabilityRepo.GetByUserAndWeekday(ctx, identity.UserID, args.Weekday)
	if err != nil {
		return "", err
	}

	if existing == nil {
		rule := &models.AvailabilityRule{
			UserID:    identity.UserID,
			Weekday:   args.Weekday,
			StartTime: args.StartTime,
			EndTime:   args.EndTime,
			IsActive:  true,
		}
		if err := t.availabilityRepo.Insert(ctx, rule); err != nil {
			return "", err
		}
		return marshalResult(map[string]any{"updated": true, "weekday": args.Weekday, "created": true})
	}

	existing.StartTime = args.StartTime
	existing.EndTime = args.EndTime
	existing.IsActive = true
	if err := t.availabilityRepo.Update(ctx, existing); err != nil {
		return "", err
	}

	return marshalResult(map[string]any{"updated": true, "weekday": args.Weekday, "created": false})
}

// ============================================================================
// Tool: update_theme
// ============================================================================

type updateThemeArgs struct {
	PrimaryColor    *string `json:"primary_color"`
	BackgroundColor *string `json:"background_color"`
	FontFamily      *string `json:"font_family"`
	LogoURL         *string `json:"logo_url"`
}

// Theme defaults used when a settings row is created from a partial update.
const (
	defaultPrimaryColor    = "#1a73e8"
	defaultBackgroundColor = "#ffffff"
	defaultFontFamily      = "Inter"
)

func (t *assistantTools) updateTheme(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
	var args updateThemeArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return errorResult("Invalid arguments"), nil
	}

	if args.PrimaryColor == nil && args.BackgroundColor == nil && args.FontFamily == nil && args.LogoURL == nil {
		return errorResult("at least one theme field is required"), nil
	}

	existing, err := t.themeRepo.GetByUser(ctx, identity.UserID)
	if err != nil {
		return "", err
	}

	if existing == nil {
		settings := &models.CalendarDesignSettings{
			UserID:          identity.UserID,
			PrimaryColor:    defaultPrimaryColor,
			BackgroundColor: defaultBackgroundColor,
			FontFamily:      defaultFontFamily,
		}
		applyThemeArgs(settings, &args)
		if err := t.themeRepo.Insert(ctx, settings); err != nil {
			return "", err
		}
		return marshalResult(map[string]any{"updated": true, "created": true})
	}

	applyThemeArgs(existing, &args)
	if err := t.themeRepo.Update(ctx, existing); err != nil {
		return "", err
	}

	return marshalResult(map[string]any{"updated": true, "created": false})
}

func applyThemeArgs(settings *models.CalendarDesignSettings, args *updateThemeArgs) {
	if args.PrimaryColor != nil {
		settings.PrimaryColor = *args.PrimaryColor
	}
	if args.BackgroundColor != nil {
		settings.BackgroundColor = *args.BackgroundColor
	}
	if args.FontFamily != nil {
		settings.FontFamily = *args.FontFamily
	}
	if args.LogoURL != nil {
		settings.LogoURL = args.LogoURL
	}
}

// ============================================================================
// Tool: configure_reminders
// ============================================================================

type configureRemindersArgs struct {
	Channel       string `json:"channel"`
	OffsetMinutes int    `json:"offset_minutes"`
	IsActive      *bool  `json:"is_active"`
}

func (t *assistantTools) configureReminders(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
	var args configureRemindersArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return errorResult("Invalid arguments"), nil
	}

	if !models.IsValidReminderChannel(args.Channel) {
		return errorResult(fmt.Sprintf("channel must be one of: %s", strings.Join(models.ValidReminderChannels, ", "))), nil
	}
	if args.OffsetMinutes <= 0 {
		return errorResult("offset_minutes must be positive"), nil
	}

	isActive := true
	if args.IsActive != nil {
		isActive = *args.IsActive
	}

	// One rule per (user, channel): probe, then insert or update.
	existing, err := t.reminderRepo.GetByUserAndChannel(ctx, identity.UserID, args.Channel)
	if err != nil {
		return "", err
	}

	if existing == nil {
		rule := &models.ReminderRule{
			UserID:        identity.UserID,
			Channel:       args.Channel,
			OffsetMinutes: args.OffsetMinutes,
			IsActive:      isActive,
		}
		if err := t.reminderRepo.Insert(ctx, rule); err != nil {
			return "", err
		}
		return marshalResult(map[string]any{"updated": true, "channel": args.Channel, "created": true})
	}

	existing.OffsetMinutes = args.OffsetMinutes
	existing.IsActive = isActive
	if err := t.reminderRepo.Update(ctx, existing); err != nil {
		return "", err
	}

	return marshalResult(map[string]any{"updated": true, "channel": args.Channel, "created": false})
}

// marshalResult serializes a successful tool result.
func marshalResult(payload map[string]any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return string(data), nil
}
