package email

const (
	subjectBookingConfirmationFmt = "Your booking %s is confirmed"
	subjectBookingReviewFmt       = "We received your booking %s"
	subjectFraudAlertFmt          = "[Review] Booking %s flagged (%s risk)"
	subjectInstallerIntroFmt      = "Your installer for booking %s"
	subjectLeadReceiptFmt         = "Lead %s purchased"
	subjectRefundApprovedFmt      = "Refund approved for lead %s"
	subjectRefundRejectedFmt      = "Refund request for lead %s declined"
	subjectBookingReminderFmt     = "Reminder: your installation is tomorrow (%s)"
)
