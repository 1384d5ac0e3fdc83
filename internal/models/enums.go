package models

// Frequency describes how often a scheduled event recurs.
type Frequency string

// Auto-allocation frequencies.
const (
	FrequencyDaily         Frequency = "daily"
	FrequencyEveryOtherDay Frequency = "every_other_day"
	FrequencyWeekly        Frequency = "weekly"
	FrequencyBiWeekly      Frequency = "bi_weekly"
	FrequencyBiMonthly     Frequency = "bi_monthly"
	FrequencyMonthly       Frequency = "monthly"
	FrequencySemiAnnually  Frequency = "semi_annually"
	FrequencyAnnually      Frequency = "annually"
)

// RecurringPeriod describes the cadence of a recurring goal, used when a
// completed stack resets and its due date rolls forward.
type RecurringPeriod string

const (
	PeriodWeekly       RecurringPeriod = "weekly"
	PeriodBiWeekly     RecurringPeriod = "bi_weekly"
	PeriodBiMonthly    RecurringPeriod = "bi_monthly"
	PeriodMonthly      RecurringPeriod = "monthly"
	PeriodQuarterly    RecurringPeriod = "quarterly"
	PeriodSemiAnnually RecurringPeriod = "semi_annually"
	PeriodAnnually     RecurringPeriod = "annually"
)

// OverflowBehavior controls where funds go when an allocation would push a
// stack past its target amount.
type OverflowBehavior string

const (
	// OverflowNextPriority sends the excess to the next stack down in
	// priority order.
	OverflowNextPriority OverflowBehavior = "next_priority"
	// OverflowAvailableBalance leaves the excess in the account's
	// available balance.
	OverflowAvailableBalance OverflowBehavior = "available_balance"
	// OverflowKeepInStack lets the stack exceed its target.
	OverflowKeepInStack OverflowBehavior = "keep_in_stack"
)

// ResetBehavior controls what happens to a stack after it reaches its goal.
type ResetBehavior string

const (
	ResetNone   ResetBehavior = "none"
	ResetAuto   ResetBehavior = "auto_reset"
	ResetAsk    ResetBehavior = "ask_reset"
	ResetDelete ResetBehavior = "delete"
)

// Valid reports whether b is a known overflow behavior.
func (b OverflowBehavior) Valid() bool {
	switch b {
	case OverflowNextPriority, OverflowAvailableBalance, OverflowKeepInStack:
		return true
	}
	return false
}

// Valid reports whether b is a known reset behavior.
func (b ResetBehavior) Valid() bool {
	switch b {
	case ResetNone, ResetAuto, ResetAsk, ResetDelete:
		return true
	}
	return false
}
