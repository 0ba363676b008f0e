package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"food-kiosk/models"
)

var (
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrInvalidOTP      = errors.New("invalid otp")
	ErrOTPNotRequested = errors.New("otp step not reached")
)

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	otpPattern   = regexp.MustCompile(`^\d{4}$`)
)

type LoginStep string

const (
	StepPhone LoginStep = "phone"
	StepOTP   LoginStep = "otp"
)

// LoginFlow is the simulated two-step OTP login. There is no real
// verification behind it; a well-formed OTP always succeeds. The delays
// imitate network latency and honour ctx cancellation, so a dismissed
// login view leaves no pending transition behind.
type LoginFlow struct {
	step        LoginStep
	phone       string
	notifier    Notifier
	sendDelay   time.Duration
	verifyDelay time.Duration
}

func NewLoginFlow(notifier Notifier, sendDelay, verifyDelay time.Duration) *LoginFlow {
	return &LoginFlow{
		step:        StepPhone,
		notifier:    notifier,
		sendDelay:   sendDelay,
		verifyDelay: verifyDelay,
	}
}

func (f *LoginFlow) Step() LoginStep {
	return f.step
}

func (f *LoginFlow) Phone() string {
	return f.phone
}

// SubmitPhone validates the phone locally, simulates sending an OTP and
// advances to the OTP step. Malformed input rejects with a notification and
// no step change.
func (f *LoginFlow) SubmitPhone(ctx context.Context, phone string) error {
	if !phonePattern.MatchString(phone) {
		f.notifier.Notify(ctx, Notification{
			Title:    "Invalid phone number",
			Body:     "Please enter a valid 10-digit phone number",
			Severity: SeverityError,
			Duration: 3 * time.Second,
		})
		return ErrInvalidPhone
	}

	if err := wait(ctx, f.sendDelay); err != nil {
		return err
	}

	f.phone = phone
	f.step = StepOTP
	f.notifier.Notify(ctx, Notification{
		Title:    "OTP Sent",
		Body:     fmt.Sprintf("A verification code has been sent to %s", phone),
		Severity: SeverityInfo,
		Duration: 3 * time.Second,
	})
	return nil
}

// SubmitOTP validates the code format, simulates verification and accepts
// unconditionally, returning a placeholder profile with a random
// reward-points balance. The flow resets afterwards.
func (f *LoginFlow) SubmitOTP(ctx context.Context, otp string) (*models.CustomerProfile, error) {
	if f.step != StepOTP {
		return nil, ErrOTPNotRequested
	}
	if !otpPattern.MatchString(otp) {
		f.notifier.Notify(ctx, Notification{
			Title:    "Invalid OTP",
			Body:     "Please enter a valid 4-digit OTP",
			Severity: SeverityError,
			Duration: 3 * time.Second,
		})
		return nil, ErrInvalidOTP
	}

	if err := wait(ctx, f.verifyDelay); err != nil {
		return nil, err
	}

	profile := &models.CustomerProfile{
		Name:         "Customer",
		Phone:        f.phone,
		RewardPoints: rand.Intn(100),
	}
	f.Reset()
	return profile, nil
}

// Reset returns the flow to the phone step ("change phone number").
func (f *LoginFlow) Reset() {
	f.step = StepPhone
	f.phone = ""
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
