// Package authflow implements the two-step session acquisition flow of
// the customer site: phone lookup, then either a password check (login)
// or a one-time WhatsApp code check (registration).
package authflow

import (
	"context"
	"sync"

	"github.com/example/tumar/internal/models"
)

// Mode selects which credential the second step verifies.
type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

// Step is the flow's current screen.
type Step string

const (
	StepEnterPhone      Step = "enter_phone"
	StepEnterCredential Step = "enter_credential"
	StepAuthenticated   Step = "authenticated"
)

// CodeCountdownSeconds gates how long resend stays disabled after a
// code is sent. Presentational only; the stored expiry decides
// validity.
const CodeCountdownSeconds = 300

// User-facing messages, shared with the HTTP handlers.
const (
	MsgInvalidPhone     = "enter a valid phone number"
	MsgIncompleteCode   = "enter the 4-digit code"
	MsgPhoneTaken       = "phone already registered"
	MsgAccountNotFound  = "account not found, please register"
	MsgAccountBlocked   = "account blocked"
	MsgWrongPassword    = "incorrect password"
	MsgCodeInvalid      = "invalid or expired code"
	MsgTryAgainLater    = "something went wrong, try again later"
	MsgResendLocked     = "wait for the countdown before requesting a new code"
	MsgDeliveryFailed   = "service unavailable, ensure WhatsApp is reachable"
	MsgCredentialNotDue = "enter your phone number first"
)

// Credential is the tagged step-2 input. Registration verifies a code,
// login verifies a password; the two are never cross-checked.
type Credential interface {
	credential()
}

// PasswordEntry is the login credential.
type PasswordEntry struct {
	Password string
}

// CodeEntry is the registration credential.
type CodeEntry struct {
	Code string
}

func (PasswordEntry) credential() {}
func (CodeEntry) credential()     {}

// FailureKind classifies a failed submission.
type FailureKind int

const (
	// FailureValidation is caught before any external call is made.
	FailureValidation FailureKind = iota
	// FailureLookup means the directory was unreachable or errored.
	FailureLookup
	// FailureRejected is a business-rule rejection with a specific message.
	FailureRejected
	// FailureDelivery means the code-delivery service failed.
	FailureDelivery
)

// Failure carries the kind and the inline message shown to the user.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// Outcome of one submission.
type Outcome int

const (
	// OutcomePending means nothing was applied: a call is already in
	// flight, or the attempt was discarded before the response landed.
	OutcomePending Outcome = iota
	// OutcomeAdvanced means the attempt moved forward without
	// terminating (step advance, code resent).
	OutcomeAdvanced
	// OutcomeAuthenticated is terminal; Customer is set.
	OutcomeAuthenticated
	// OutcomeFailed carries a Failure; the attempt stays on its step.
	OutcomeFailed
)

// Result is what a submission yields to the caller.
type Result struct {
	Outcome  Outcome
	Customer *models.Customer
	Failure  *Failure
}

// Directory is the customer store the flow reads. FindByPhone and
// ClaimCode return (nil, nil) when nothing matches.
type Directory interface {
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	ClaimCode(ctx context.Context, phone, code string) (*models.Customer, error)
}

// CodeSender delivers one-time codes out-of-band.
type CodeSender interface {
	Send(ctx context.Context, phone string) error
	Resend(ctx context.Context, phone string) error
}

// PasswordVerifier reports whether plaintext matches the stored hash.
// Must be constant-time (bcrypt in production).
type PasswordVerifier func(hash, password string) bool

// Flow drives one session attempt from phone entry to terminal
// success. External calls are issued without holding the lock; their
// results are applied only if the attempt epoch is unchanged, so a
// response that arrives after a mode switch or back navigation is
// discarded.
type Flow struct {
	dir    Directory
	sender CodeSender
	verify PasswordVerifier
	sched  Scheduler

	mu         sync.Mutex
	mode       Mode
	step       Step
	phoneDraft string
	record     *models.Customer
	prefetch   *prefetchEntry
	countdown  *countdown
	failure    *Failure
	busy       bool
	epoch      uint64
}

// prefetchEntry holds a speculative lookup result; it is only trusted
// while its key still matches the current draft.
type prefetchEntry struct {
	key      string
	customer *models.Customer
}

// New constructs a Flow starting in login mode on the phone step.
func New(dir Directory, sender CodeSender, verify PasswordVerifier, sched Scheduler) *Flow {
	if sched == nil {
		sched = NewScheduler()
	}
	return &Flow{
		dir:    dir,
		sender: sender,
		verify: verify,
		sched:  sched,
		mode:   ModeLogin,
		step:   StepEnterPhone,
	}
}

// Mode returns the current mode.
func (f *Flow) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// PhoneDraft returns the display-formatted phone entry.
func (f *Flow) PhoneDraft() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phoneDraft
}

// Failure returns the message from the last failed submission, or nil.
func (f *Flow) Failure() *Failure {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failure
}

// PrefetchedKey reports which key a speculative lookup has landed for,
// empty when none.
func (f *Flow) PrefetchedKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prefetch == nil {
		return ""
	}
	return f.prefetch.key
}

// RemainingSeconds reports the resend countdown, zero when none runs.
func (f *Flow) RemainingSeconds() int {
	f.mu.Lock()
	cd := f.countdown
	f.mu.Unlock()
	if cd == nil {
		return 0
	}
	return cd.Remaining()
}

// InputPhone records progressive phone input and, once the number is
// complete, speculatively starts the lookup. The prefetched record is
// used at submit time only if the key still matches; a changed key
// always triggers a fresh query.
func (f *Flow) InputPhone(ctx context.Context, raw string) string {
	formatted := FormatPhone(raw)

	f.mu.Lock()
	f.phoneDraft = formatted
	key := PhoneKey(formatted)
	epoch := f.epoch
	needsPrefetch := ValidPhoneKey(key) && (f.prefetch == nil || f.prefetch.key != key)
	f.mu.Unlock()

	if needsPrefetch {
		go func() {
			customer, err := f.dir.FindByPhone(ctx, key)
			if err != nil {
				return // best-effort; submit falls back to a fresh query
			}
			f.mu.Lock()
			if f.epoch == epoch && PhoneKey(f.phoneDraft) == key {
				f.prefetch = &prefetchEntry{key: key, customer: customer}
			}
			f.mu.Unlock()
		}()
	}
	return formatted
}

// SubmitPhone runs the first step: validate the draft, look up the
// phone and branch by mode. In register mode a code is sent when the
// phone is free; in login mode the found record is carried forward.
func (f *Flow) SubmitPhone(ctx context.Context) Result {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return Result{Outcome: OutcomePending}
	}
	if f.step != StepEnterPhone {
		res := f.failLocked(FailureValidation, MsgTryAgainLater)
		f.mu.Unlock()
		return res
	}

	key := PhoneKey(f.phoneDraft)
	if !ValidPhoneKey(key) {
		res := f.failLocked(FailureValidation, MsgInvalidPhone)
		f.mu.Unlock()
		return res
	}

	var cached *models.Customer
	haveCached := false
	if f.prefetch != nil && f.prefetch.key == key {
		cached, haveCached = f.prefetch.customer, true
	}
	mode := f.mode
	epoch := f.epoch
	f.busy = true
	f.mu.Unlock()

	customer := cached
	if !haveCached {
		var err error
		customer, err = f.dir.FindByPhone(ctx, key)
		if err != nil {
			return f.apply(epoch, func() Result {
				return f.failLocked(FailureLookup, MsgTryAgainLater)
			})
		}
	}

	if failure := DecideLookup(mode, customer); failure != nil {
		return f.apply(epoch, func() Result {
			return f.failLocked(failure.Kind, failure.Message)
		})
	}

	if mode == ModeRegister {
		if err := f.sender.Send(ctx, key); err != nil {
			msg := err.Error()
			if msg == "" {
				msg = MsgDeliveryFailed
			}
			return f.apply(epoch, func() Result {
				return f.failLocked(FailureDelivery, msg)
			})
		}
		return f.apply(epoch, func() Result {
			f.step = StepEnterCredential
			f.failure = nil
			f.startCountdownLocked()
			return Result{Outcome: OutcomeAdvanced}
		})
	}

	return f.apply(epoch, func() Result {
		f.record = customer
		f.step = StepEnterCredential
		f.failure = nil
		return Result{Outcome: OutcomeAdvanced}
	})
}

// SubmitCredential runs the second step. The credential variant must
// match the mode.
func (f *Flow) SubmitCredential(ctx context.Context, cred Credential) Result {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return Result{Outcome: OutcomePending}
	}
	if f.step != StepEnterCredential {
		res := f.failLocked(FailureValidation, MsgCredentialNotDue)
		f.mu.Unlock()
		return res
	}

	switch entry := cred.(type) {
	case PasswordEntry:
		if f.mode != ModeLogin {
			res := f.failLocked(FailureValidation, MsgIncompleteCode)
			f.mu.Unlock()
			return res
		}
		record := f.record
		if record == nil {
			res := f.failLocked(FailureLookup, MsgTryAgainLater)
			f.mu.Unlock()
			return res
		}
		epoch := f.epoch
		f.busy = true
		f.mu.Unlock()
		return f.checkPassword(epoch, record, entry.Password)

	case CodeEntry:
		if f.mode != ModeRegister {
			res := f.failLocked(FailureValidation, MsgWrongPassword)
			f.mu.Unlock()
			return res
		}
		code := entry.Code
		if !ValidCodeEntry(code) {
			res := f.failLocked(FailureValidation, MsgIncompleteCode)
			f.mu.Unlock()
			return res
		}
		key := PhoneKey(f.phoneDraft)
		epoch := f.epoch
		f.busy = true
		f.mu.Unlock()
		return f.checkCode(ctx, epoch, key, code)

	default:
		res := f.failLocked(FailureValidation, MsgTryAgainLater)
		f.mu.Unlock()
		return res
	}
}

// checkPassword verifies the login credential through the shared
// decision rules.
func (f *Flow) checkPassword(epoch uint64, record *models.Customer, password string) Result {
	if failure := DecidePassword(record, f.verify, password); failure != nil {
		return f.apply(epoch, func() Result {
			return f.failLocked(failure.Kind, failure.Message)
		})
	}
	return f.apply(epoch, func() Result {
		return f.authenticateLocked(record)
	})
}

// checkCode claims the one-time code. The claim is a single conditional
// update, so a second attempt with the same code always fails, and the
// rejection never reveals whether the code was wrong, used or expired.
func (f *Flow) checkCode(ctx context.Context, epoch uint64, key, code string) Result {
	customer, err := f.dir.ClaimCode(ctx, key, code)
	if err != nil {
		return f.apply(epoch, func() Result {
			return f.failLocked(FailureLookup, MsgTryAgainLater)
		})
	}
	if customer == nil {
		return f.apply(epoch, func() Result {
			return f.failLocked(FailureRejected, MsgCodeInvalid)
		})
	}
	return f.apply(epoch, func() Result {
		return f.authenticateLocked(customer)
	})
}

// ResendCode requests a fresh code once the countdown has elapsed and
// restarts it on delivery success.
func (f *Flow) ResendCode(ctx context.Context) Result {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return Result{Outcome: OutcomePending}
	}
	if f.mode != ModeRegister || f.step != StepEnterCredential {
		res := f.failLocked(FailureValidation, MsgCredentialNotDue)
		f.mu.Unlock()
		return res
	}
	if f.countdown != nil && f.countdown.Remaining() > 0 {
		res := f.failLocked(FailureValidation, MsgResendLocked)
		f.mu.Unlock()
		return res
	}
	key := PhoneKey(f.phoneDraft)
	epoch := f.epoch
	f.busy = true
	f.mu.Unlock()

	if err := f.sender.Resend(ctx, key); err != nil {
		msg := err.Error()
		if msg == "" {
			msg = MsgDeliveryFailed
		}
		return f.apply(epoch, func() Result {
			return f.failLocked(FailureDelivery, msg)
		})
	}
	return f.apply(epoch, func() Result {
		f.failure = nil
		f.startCountdownLocked()
		return Result{Outcome: OutcomeAdvanced}
	})
}

// SwitchMode discards the whole attempt and starts over in the given
// mode: phone, credential context, errors and countdown are all reset.
func (f *Flow) SwitchMode(mode Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = mode
	f.resetLocked(true)
}

// Back returns from the credential step. The phone entry is kept but
// the carried record and prefetch are dropped, so a later submission
// re-runs the full lookup instead of trusting stale state.
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepEnterCredential {
		return
	}
	f.resetLocked(false)
}

// Close discards the attempt, cancelling the countdown and invalidating
// any in-flight responses.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked(true)
}

func (f *Flow) resetLocked(clearPhone bool) {
	f.epoch++
	f.busy = false
	f.step = StepEnterPhone
	f.record = nil
	f.prefetch = nil
	f.failure = nil
	if clearPhone {
		f.phoneDraft = ""
	}
	f.cancelCountdownLocked()
}

// apply re-locks, clears the in-flight flag and applies fn only if the
// attempt was not reset while the call was out. A stale response yields
// OutcomePending and changes nothing.
func (f *Flow) apply(epoch uint64, fn func() Result) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if f.epoch != epoch {
		return Result{Outcome: OutcomePending}
	}
	return fn()
}

func (f *Flow) failLocked(kind FailureKind, msg string) Result {
	f.failure = &Failure{Kind: kind, Message: msg}
	return Result{Outcome: OutcomeFailed, Failure: f.failure}
}

func (f *Flow) authenticateLocked(customer *models.Customer) Result {
	f.failure = nil
	f.record = customer
	f.step = StepAuthenticated
	f.cancelCountdownLocked()
	return Result{Outcome: OutcomeAuthenticated, Customer: customer}
}

func (f *Flow) startCountdownLocked() {
	f.cancelCountdownLocked()
	f.countdown = startCountdown(f.sched, CodeCountdownSeconds)
}

func (f *Flow) cancelCountdownLocked() {
	if f.countdown != nil {
		f.countdown.cancel()
		f.countdown = nil
	}
}
