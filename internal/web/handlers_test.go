package web

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
)

func entryValues(title, amount, category, kind, date string) url.Values {
	return url.Values{
		"title":    {title},
		"amount":   {amount},
		"category": {category},
		"kind":     {kind},
		"date":     {date},
	}
}

func TestRegisterLoginAddDashboard(t *testing.T) {
	srv, _ := newTestServer(t)
	client, base := newBrowser(t, srv)
	signUpAndIn(t, client, base, "alice", "password123")

	code, body := postForm(t, client, base+"/add", entryValues("Coffee", "4.50", "Food", "expense", "2024-01-01"))
	if code != http.StatusOK || !strings.Contains(body, "Expense added successfully!") {
		t.Fatalf("add expense: status=%d body=%q", code, body)
	}

	code, body = postForm(t, client, base+"/add", entryValues("Salary", "2000", "Work", "income", "2024-01-02"))
	if code != http.StatusOK || !strings.Contains(body, "Income added successfully!") {
		t.Fatalf("add income: status=%d body=%q", code, body)
	}

	code, body = getPage(t, client, base+"/dashboard")
	if code != http.StatusOK {
		t.Fatalf("dashboard status=%d", code)
	}
	for _, want := range []string{"2000.00", "4.50", "1995.50", "Food"} {
		if !strings.Contains(body, want) {
			t.Fatalf("dashboard missing %q:\n%s", want, body)
		}
	}
	// The chart payload carries the breakdown as parallel arrays.
	if !strings.Contains(body, `"labels":["Food"]`) || !strings.Contains(body, `"values":[4.5]`) {
		t.Fatalf("chart data block missing or wrong:\n%s", body)
	}
}

func TestViewListsEntriesNewestFirst(t *testing.T) {
	srv, _ := newTestServer(t)
	client, base := newBrowser(t, srv)
	signUpAndIn(t, client, base, "alice", "password123")

	postForm(t, client, base+"/add", entryValues("Older coffee", "3.00", "Food", "expense", "2024-01-01"))
	postForm(t, client, base+"/add", entryValues("Newer lunch", "12.00", "Food", "expense", "2024-02-01"))

	_, body := getPage(t, client, base+"/view")
	lunch := strings.Index(body, "Newer lunch")
	coffee := strings.Index(body, "Older coffee")
	if lunch == -1 || coffee == -1 {
		t.Fatalf("entries missing from view:\n%s", body)
	}
	if lunch > coffee {
		t.Fatal("entries not ordered by date descending")
	}
}

func TestAddValidationReRendersForm(t *testing.T) {
	srv, _ := newTestServer(t)
	client, base := newBrowser(t, srv)
	signUpAndIn(t, client, base, "alice", "password123")

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"bad amount", entryValues("Coffee", "abc", "Food", "expense", "2024-01-01"), "Please enter a valid amount."},
		{"negative amount", entryValues("Coffee", "-1.00", "Food", "expense", "2024-01-01"), "Please enter a valid amount."},
		{"bad date", entryValues("Coffee", "4.50", "Food", "expense", "01/02/2024"), "Please enter a valid date"},
		{"bad kind", entryValues("Coffee", "4.50", "Food", "spending", "2024-01-01"), "Please choose income or expense."},
		{"empty title", entryValues("   ", "4.50", "Food", "expense", "2024-01-01"), "Invalid data:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := postForm(t, client, base+"/add", tt.form)
			if code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d, want 422", code)
			}
			if !strings.Contains(body, tt.want) {
				t.Fatalf("notice %q missing in %q", tt.want, body)
			}
		})
	}

	// A failed submit keeps what the user typed.
	_, body := postForm(t, client, base+"/add", entryValues("Morning coffee", "abc", "Food", "expense", "2024-01-01"))
	if !strings.Contains(body, `value="Morning coffee"`) {
		t.Fatalf("form values not preserved:\n%s", body)
	}

	// None of the rejected entries were stored.
	_, body = getPage(t, client, base+"/view")
	if !strings.Contains(body, "Nothing recorded yet.") {
		t.Fatalf("rejected entries leaked into the ledger:\n%s", body)
	}
}

func TestEditEntryFlow(t *testing.T) {
	srv, store := newTestServer(t)
	client, base := newBrowser(t, srv)
	signUpAndIn(t, client, base, "alice", "password123")
	postForm(t, client, base+"/add", entryValues("Coffee", "4.50", "Food", "expense", "2024-01-01"))

	entries, err := store.EntriesByOwner(context.Background(), 1)
	if err != nil || len(entries) != 1 {
		t.Fatalf("seed entry: %v (%d entries)", err, len(entries))
	}
	id := entries[0].ID

	// The edit form comes back pre-filled.
	_, body := getPage(t, client, base+"/edit/"+itoa(id))
	if !strings.Contains(body, `value="Coffee"`) || !strings.Contains(body, `value="4.50"`) {
		t.Fatalf("edit form not pre-filled:\n%s", body)
	}

	code, body := postForm(t, client, base+"/edit/"+itoa(id), entryValues("Espresso", "5.00", "Food", "expense", "2024-01-03"))
	if code != http.StatusOK || !strings.Contains(body, "Entry updated successfully!") {
		t.Fatalf("edit post: status=%d body=%q", code, body)
	}
	if !strings.Contains(body, "Espresso") || strings.Contains(body, "Coffee") {
		t.Fatalf("view not updated after edit:\n%s", body)
	}

	got, err := store.EntryByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload entry: %v", err)
	}
	if got.Title != "Espresso" || got.Amount.Cents != 500 || got.Date.ISO() != "2024-01-03" {
		t.Fatalf("stored entry not updated: %+v", got)
	}
}

func TestDeleteEntryFlow(t *testing.T) {
	srv, store := newTestServer(t)
	client, base := newBrowser(t, srv)
	signUpAndIn(t, client, base, "alice", "password123")
	postForm(t, client, base+"/add", entryValues("Coffee", "4.50", "Food", "expense", "2024-01-01"))

	entries, _ := store.EntriesByOwner(context.Background(), 1)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	code, body := getPage(t, client, base+"/delete/"+itoa(entries[0].ID))
	if code != http.StatusOK || !strings.Contains(body, "Entry deleted successfully!") {
		t.Fatalf("delete: status=%d body=%q", code, body)
	}
	if strings.Contains(body, "Coffee") {
		t.Fatalf("deleted entry still listed:\n%s", body)
	}

	if left, _ := store.EntriesByOwner(context.Background(), 1); len(left) != 0 {
		t.Fatalf("entry still stored after delete: %d left", len(left))
	}
}

func TestCrossUserAccessDenied(t *testing.T) {
	srv, store := newTestServer(t)

	alice, base := newBrowser(t, srv)
	signUpAndIn(t, alice, base, "alice", "password123")
	postForm(t, alice, base+"/add", entryValues("Coffee", "4.50", "Food", "expense", "2024-01-01"))

	entries, _ := store.EntriesByOwner(context.Background(), 1)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry for alice, got %d", len(entries))
	}
	id := entries[0].ID

	bob := newClient(t)
	signUpAndIn(t, bob, base, "bob", "password123")

	// Edit, update and delete against alice's entry all bounce to the
	// dashboard with the same notice.
	if _, body := getPage(t, bob, base+"/edit/"+itoa(id)); !strings.Contains(body, "Unauthorized access") {
		t.Fatalf("edit form for foreign entry: %q", body)
	}
	if _, body := postForm(t, bob, base+"/edit/"+itoa(id), entryValues("Hijack", "1.00", "X", "expense", "2024-01-01")); !strings.Contains(body, "Unauthorized access") {
		t.Fatalf("edit post for foreign entry: %q", body)
	}
	if _, body := getPage(t, bob, base+"/delete/"+itoa(id)); !strings.Contains(body, "Unauthorized access") {
		t.Fatalf("delete for foreign entry: %q", body)
	}

	// The entry is untouched.
	got, err := store.EntryByID(context.Background(), id)
	if err != nil {
		t.Fatalf("entry gone after denied access: %v", err)
	}
	if got.Title != "Coffee" || got.OwnerID != 1 {
		t.Fatalf("entry mutated by denied access: %+v", got)
	}

	// Bob's own view shows none of it.
	if _, body := getPage(t, bob, base+"/view"); strings.Contains(body, "Coffee") {
		t.Fatalf("foreign entry visible in bob's view:\n%s", body)
	}
}

func TestUnknownEntryFlashesNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	client, base := newBrowser(t, srv)
	signUpAndIn(t, client, base, "alice", "password123")

	for _, path := range []string{"/edit/999", "/delete/999"} {
		_, body := getPage(t, client, base+path)
		if !strings.Contains(body, "Entry not found.") {
			t.Fatalf("%s: not-found notice missing in %q", path, body)
		}
	}
}

func TestDashboardCacheInvalidatedOnMutation(t *testing.T) {
	srv, _ := newTestServer(t)
	client, base := newBrowser(t, srv)
	signUpAndIn(t, client, base, "alice", "password123")

	// Prime the cache with an empty ledger.
	if _, body := getPage(t, client, base+"/dashboard"); !strings.Contains(body, "0.00") {
		t.Fatalf("fresh dashboard not empty:\n%s", body)
	}

	postForm(t, client, base+"/add", entryValues("Salary", "2000", "Work", "income", "2024-01-02"))

	_, body := getPage(t, client, base+"/dashboard")
	if !strings.Contains(body, "2000.00") {
		t.Fatalf("dashboard served stale summary after add:\n%s", body)
	}
}

func TestDeleteOnlyAcceptsNumericIDs(t *testing.T) {
	srv, _ := newTestServer(t)
	client, base := newBrowser(t, srv)
	signUpAndIn(t, client, base, "alice", "password123")

	resp, err := client.Get(base + "/delete/abc")
	if err != nil {
		t.Fatalf("GET /delete/abc: %v", err)
	}
	resp.Body.Close()
	// The route pattern only matches digits; anything else falls through
	// to the router's 404.
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", resp.StatusCode)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
