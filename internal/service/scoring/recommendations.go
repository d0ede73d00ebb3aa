package scoring

// generateRecommendations produces the ordered action list for an
// analysis: a tier block first, then entries targeting specific
// factors. The order is deterministic so downstream consumers can
// treat the first entry as the headline action.
func generateRecommendations(level RiskLevel, fraudulent bool, factors []RiskFactor) []Recommendation {
	var recs []Recommendation

	switch {
	case fraudulent:
		recs = append(recs,
			Recommendation{ActionDecline, SeverityCritical, "Decline the transaction immediately"},
			Recommendation{ActionContact, SeverityCritical, "Contact the cardholder to confirm the attempt"},
			Recommendation{ActionBlockCard, SeverityCritical, "Block the card pending cardholder confirmation"},
			Recommendation{ActionReview, SeverityHigh, "Route the account for manual fraud review"},
			Recommendation{ActionEscalate, SeverityHigh, "Open a fraud investigation case"},
			Recommendation{ActionEscalate, SeverityHigh, "Report the incident to the card network"},
		)
	case level == RiskLevelHigh:
		recs = append(recs,
			Recommendation{ActionReview, SeverityHigh, "Hold the transaction for manual review"},
			Recommendation{ActionStepUpAuth, SeverityHigh, "Require step-up authentication before approval"},
			Recommendation{ActionContact, SeverityMedium, "Contact the cardholder to verify the transaction"},
			Recommendation{ActionMonitor, SeverityMedium, "Monitor the account for follow-up activity"},
		)
	case level == RiskLevelMedium:
		recs = append(recs,
			Recommendation{ActionVerify, SeverityMedium, "Request additional verification from the cardholder"},
			Recommendation{ActionSetAlert, SeverityMedium, "Set a transaction alert on the account"},
			Recommendation{ActionMonitor, SeverityLow, "Monitor the account for the next 24 hours"},
			Recommendation{ActionLimitCard, SeverityLow, "Consider temporary velocity limits"},
		)
	default:
		recs = append(recs,
			Recommendation{ActionApprove, SeverityLow, "Approve the transaction"},
			Recommendation{ActionMonitor, SeverityLow, "Continue standard account monitoring"},
		)
	}

	for _, f := range factors {
		switch f.Name {
		case FactorInvalidCard:
			recs = append(recs, Recommendation{ActionDecline, SeverityCritical, "Reject the card; the number failed validation"})
		case FactorHighVelocity:
			recs = append(recs, Recommendation{ActionLimitCard, SeverityCritical, "Apply velocity limits; transaction burst detected"})
		case FactorHighRiskLocation:
			recs = append(recs, Recommendation{ActionStepUpAuth, SeverityCritical, "Require enhanced verification for the high-risk region"})
		case FactorImpossibleTravel:
			recs = append(recs, Recommendation{ActionContact, SeverityCritical, "Confirm the cardholder's location; consecutive transactions are geographically impossible"})
		}
	}

	return recs
}
