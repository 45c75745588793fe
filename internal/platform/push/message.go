package push

import (
	"fmt"

	"booklend/internal/notification"
)

// Message is the human-readable part of a push alert.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Compose maps a notification record to its message template.
func Compose(rec notification.Record) Message {
	actor := rec.ActorName
	if actor == "" {
		actor = "Someone"
	}
	book := rec.BookTitle
	if book == "" {
		book = "a book"
	} else {
		book = fmt.Sprintf("%q", book)
	}

	switch rec.Kind {
	case notification.BorrowRequested:
		return Message{"New borrow request", fmt.Sprintf("%s would like to borrow %s.", actor, book)}
	case notification.ContactOwner:
		return Message{"Request accepted", fmt.Sprintf("Get in touch with %s to hand over %s.", actor, book)}
	case notification.ContactBorrower:
		return Message{"Request accepted", fmt.Sprintf("%s accepted your request for %s. Arrange the hand-over.", actor, book)}
	case notification.OwnerDeclined:
		return Message{"Request declined", fmt.Sprintf("%s declined your request for %s.", actor, book)}
	case notification.EvaluateOwner:
		return Message{"How did it go?", fmt.Sprintf("Rate %s, who lent you %s.", actor, book)}
	case notification.EvaluateBorrower:
		return Message{"How did it go?", fmt.Sprintf("Rate %s, who borrowed %s.", actor, book)}
	case notification.LoanExpired:
		return Message{"Loan expired", fmt.Sprintf("The loan of %s to %s is over. Did you get it back?", book, actor)}
	case notification.BookAvailable:
		return Message{"Book available", fmt.Sprintf("%s is available again.", capitalize(book))}
	}
	return Message{"Booklend", "You have a new notification."}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
