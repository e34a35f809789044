package usecase

import (
	"context"

	chatdomain "mailchat-backend/internal/chat/domain"
	emaildomain "mailchat-backend/internal/email/domain"
	"mailchat-backend/pkg/nlp"
)

// findEmailByCriteria resolves a single target email from the parsed
// parameters, trying each strategy in turn: 1-indexed position, sender,
// subject keyword, then deterministic re-extraction from the raw message.
// Returns (nil, nil) when nothing matches.
func (c *chatUsecase) findEmailByCriteria(ctx context.Context, session *mailSession, params chatdomain.CommandParams, userMessage string) (*emaildomain.Email, error) {
	if params.EmailNumber != nil && *params.EmailNumber > 0 {
		n := *params.EmailNumber
		emails, err := session.provider.FetchEmails(ctx, session.creds, n, "")
		if err != nil {
			return nil, err
		}
		if len(emails) >= n {
			return emails[n-1], nil
		}
	}

	if params.Sender != "" {
		emails, err := session.provider.SearchEmails(ctx, session.creds, "from:"+params.Sender, 1)
		if err != nil {
			return nil, err
		}
		if len(emails) > 0 {
			return emails[0], nil
		}
	}

	if len(params.SubjectKeywords) > 0 && params.SubjectKeywords[0] != "" {
		emails, err := session.provider.SearchEmails(ctx, session.creds, "subject:"+params.SubjectKeywords[0], 1)
		if err != nil {
			return nil, err
		}
		if len(emails) > 0 {
			return emails[0], nil
		}
	}

	if n := nlp.ExtractEmailNumber(userMessage); n > 0 {
		emails, err := session.provider.FetchEmails(ctx, session.creds, n, "")
		if err != nil {
			return nil, err
		}
		if len(emails) >= n {
			return emails[n-1], nil
		}
	}

	if sender := nlp.ExtractSender(userMessage); sender != "" {
		emails, err := session.provider.SearchEmails(ctx, session.creds, "from:"+sender, 1)
		if err != nil {
			return nil, err
		}
		if len(emails) > 0 {
			return emails[0], nil
		}
	}

	return nil, nil
}
