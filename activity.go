package props

import "github.com/goliatone/go-props/pkg/activity"

// WithActivityHooks attaches hooks notified when a nested accessor derives a
// view or an accessor invocation fails. Nil hooks are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := activity.CloneHooks(hooks)
	return func(cfg *viewConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *viewConfig) {
		cfg.activityChannel = channel
	}
}

// ActivityHooks returns a copy of the hooks configured on the view.
func (v *View) ActivityHooks() activity.Hooks {
	if v == nil {
		return nil
	}
	return activity.CloneHooks(v.cfg.activityHooks)
}
