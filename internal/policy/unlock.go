// Package policy decides which milestones of an order may be paid.
//
// Milestones settle strictly in sequence: the earliest unpaid milestone is the
// only payable one and every unpaid milestone after it is locked. Standings are
// always derived from the milestones passed in and never stored.
package policy

import (
	"sort"

	"github.com/Bessima/bookbind-pay/internal/customerror"
	"github.com/Bessima/bookbind-pay/internal/models"
)

type Standing string

const (
	Paid    Standing = "PAID"
	Payable Standing = "PAYABLE"
	Locked  Standing = "LOCKED"
)

type MilestoneStanding struct {
	Milestone models.Milestone
	Standing  Standing
}

func sequence(milestones []models.Milestone) []models.Milestone {
	ordered := make([]models.Milestone, len(milestones))
	copy(ordered, milestones)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})
	return ordered
}

// Evaluate returns every milestone with its standing, in sequence order.
func Evaluate(milestones []models.Milestone) []MilestoneStanding {
	ordered := sequence(milestones)
	result := make([]MilestoneStanding, 0, len(ordered))

	unpaidSeen := false
	for _, milestone := range ordered {
		standing := Paid
		switch {
		case milestone.IsPaid:
		case !unpaidSeen:
			standing = Payable
			unpaidSeen = true
		default:
			standing = Locked
		}
		result = append(result, MilestoneStanding{Milestone: milestone, Standing: standing})
	}
	return result
}

// PayableMilestone returns the earliest unpaid milestone, if any.
func PayableMilestone(milestones []models.Milestone) (models.Milestone, bool) {
	for _, item := range Evaluate(milestones) {
		if item.Standing == Payable {
			return item.Milestone, true
		}
	}
	return models.Milestone{}, false
}

func StandingOf(milestones []models.Milestone, milestoneID string) (Standing, error) {
	for _, item := range Evaluate(milestones) {
		if item.Milestone.ID == milestoneID {
			return item.Standing, nil
		}
	}
	return "", customerror.ErrUnknownMilestone
}

// CheckPayable maps a non-payable standing to the matching sentinel error.
func CheckPayable(milestones []models.Milestone, milestoneID string) error {
	standing, err := StandingOf(milestones, milestoneID)
	if err != nil {
		return err
	}
	switch standing {
	case Paid:
		return customerror.ErrMilestonePaid
	case Locked:
		return customerror.ErrMilestoneLocked
	}
	return nil
}
