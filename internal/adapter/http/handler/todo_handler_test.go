package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"todotracker/internal/core/domain"
	"todotracker/internal/core/model/response"
	. "todotracker/pkg/test"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"
)

type TodoHandlerSuite struct {
	suite.Suite
	App   *testApp
	Alice domain.User
	Token string
}

func (s *TodoHandlerSuite) SetupTest() {
	s.App = newTestApp("")
	s.Alice = s.App.createUser(map[string]any{"Username": "alice"})
	s.Token = s.App.token(s.Alice)
}

func (s *TodoHandlerSuite) TearDownTest() {
	TeardownTest(s.T(), s.App.DB)
}

func TestTodoHandlerSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TodoHandlerSuite))
}

func (s *TodoHandlerSuite) createTodo(body string, token string) response.TodoResponse {
	rr := s.App.do("POST", "/api/todos", body, token)
	Expect(rr.Code).To(Equal(http.StatusCreated), rr.Body.String())

	todo := response.TodoResponse{}
	decodeData(rr, &todo)

	return todo
}

func tagNames(tags []response.TagResponse) []string {
	names := make([]string, 0, len(tags))

	for _, tag := range tags {
		names = append(names, tag.Name)
	}

	return names
}

func (s *TodoHandlerSuite) TestRequiresAuthentication() {
	rr := s.App.do("GET", "/api/todos", "", "")

	Expect(rr.Code).To(Equal(http.StatusUnauthorized))
	Expect(decodeError(rr).Code).To(Equal("UNAUTHORIZED"))

	rr = s.App.do("GET", "/api/todos", "", "not-a-token")
	Expect(rr.Code).To(Equal(http.StatusUnauthorized))
}

func (s *TodoHandlerSuite) TestCreateTodo() {
	todo := s.createTodo(`{
		"title": "  Write report  ",
		"activityType": "work",
		"tags": ["Work", " work ", "urgent"],
		"reminderAt": "2030-01-02T09:00:00Z"
	}`, s.Token)

	Expect(todo.ID).To(BeNumerically(">", 0))
	Expect(todo.Title).To(Equal("Write report"))
	Expect(todo.ActivityType).To(Equal("work"))
	Expect(tagNames(todo.Tags)).To(ConsistOf("work", "urgent"))
	Expect(todo.ReminderAt).ToNot(BeNil())
	Expect(*todo.ReminderStatus).To(Equal("PENDING"))
}

func (s *TodoHandlerSuite) TestCreateTodoValidation() {
	rr := s.App.do("POST", "/api/todos", `{"completed": true}`, s.Token)

	Expect(rr.Code).To(Equal(http.StatusBadRequest))

	errBody := decodeError(rr)
	Expect(errBody.Code).To(Equal("VALIDATION_ERROR"))
	Expect(errBody.Errors[0]).To(Equal(response.ValidationError{Field: "title", Message: "Title is required"}))

	rr = s.App.do("POST", "/api/todos", `{"title": "   "}`, s.Token)

	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(decodeError(rr).Errors[0].Field).To(Equal("title"))

	rr = s.App.do("POST", "/api/todos", fmt.Sprintf(`{"title": %q}`, strings.Repeat("a", 256)), s.Token)
	Expect(rr.Code).To(Equal(http.StatusBadRequest))
}

func (s *TodoHandlerSuite) TestListIsScopedToOwner() {
	bob := s.App.createUser(map[string]any{"Username": "bob"})
	bobToken := s.App.token(bob)

	s.createTodo(`{"title": "alice one"}`, s.Token)
	s.createTodo(`{"title": "alice two"}`, s.Token)
	bobTodo := s.createTodo(`{"title": "bob one"}`, bobToken)

	rr := s.App.do("GET", "/api/todos", "", s.Token)
	Expect(rr.Code).To(Equal(http.StatusOK))

	todos := []response.TodoResponse{}
	decodeData(rr, &todos)

	Expect(todos).To(HaveLen(2))
	Expect([]string{todos[0].Title, todos[1].Title}).To(ConsistOf("alice one", "alice two"))

	rr = s.App.do("GET", fmt.Sprintf("/api/todos/%d", bobTodo.ID), "", s.Token)
	Expect(rr.Code).To(Equal(http.StatusNotFound))

	rr = s.App.do("PUT", fmt.Sprintf("/api/todos/%d", bobTodo.ID), `{"title": "stolen"}`, s.Token)
	Expect(rr.Code).To(Equal(http.StatusNotFound))
}

func (s *TodoHandlerSuite) TestListPaged() {
	for i := 1; i <= 3; i++ {
		s.createTodo(fmt.Sprintf(`{"title": "todo %d"}`, i), s.Token)
	}

	rr := s.App.do("GET", "/api/todos?limit=2", "", s.Token)
	Expect(rr.Code).To(Equal(http.StatusOK))

	page := response.CursorResponse{}
	Expect(json.Unmarshal(rr.Body.Bytes(), &page)).To(Succeed())

	Expect(page.Size).To(Equal(2))
	Expect(page.Pagination.HasNext).To(BeTrue())
	Expect(page.Pagination.NextCursor).ToNot(BeEmpty())

	rr = s.App.do("GET", "/api/todos?limit=2&cursor="+page.Pagination.NextCursor, "", s.Token)
	Expect(rr.Code).To(Equal(http.StatusOK))

	next := response.CursorResponse{}
	Expect(json.Unmarshal(rr.Body.Bytes(), &next)).To(Succeed())

	Expect(next.Size).To(Equal(1))
	Expect(next.Pagination.HasNext).To(BeFalse())

	rr = s.App.do("GET", "/api/todos?cursor=garbage", "", s.Token)
	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(decodeError(rr).Errors[0].Field).To(Equal("cursor"))
}

func (s *TodoHandlerSuite) TestUpdateOnlyTouchesPresentFields() {
	created := s.createTodo(`{
		"title": "original",
		"activityType": "home",
		"tags": ["chores"],
		"reminderAt": "2030-01-02T09:00:00Z"
	}`, s.Token)

	path := fmt.Sprintf("/api/todos/%d", created.ID)

	rr := s.App.do("PUT", path, `{"title": "renamed"}`, s.Token)
	Expect(rr.Code).To(Equal(http.StatusOK))

	updated := response.TodoResponse{}
	decodeData(rr, &updated)

	Expect(updated.Title).To(Equal("renamed"))
	Expect(updated.ActivityType).To(Equal("home"))
	Expect(tagNames(updated.Tags)).To(ConsistOf("chores"))
	Expect(updated.ReminderAt).ToNot(BeNil())

	rr = s.App.do("PUT", path, `{"reminderAt": null, "tags": []}`, s.Token)
	Expect(rr.Code).To(Equal(http.StatusOK))

	updated = response.TodoResponse{}
	decodeData(rr, &updated)

	Expect(updated.ReminderAt).To(BeNil())
	Expect(updated.ReminderStatus).To(BeNil())
	Expect(updated.Tags).To(BeEmpty())
	Expect(updated.Title).To(Equal("renamed"))
}

func (s *TodoHandlerSuite) TestUpdateCompletedStampsEndDate() {
	created := s.createTodo(`{"title": "finish me"}`, s.Token)

	rr := s.App.do("PUT", fmt.Sprintf("/api/todos/%d", created.ID), `{"completed": true}`, s.Token)
	Expect(rr.Code).To(Equal(http.StatusOK))

	updated := response.TodoResponse{}
	decodeData(rr, &updated)

	Expect(updated.Completed).To(BeTrue())
	Expect(updated.EndDate).ToNot(BeNil())
}

func (s *TodoHandlerSuite) TestUpdateWithNullTagsAndEndDate() {
	created := s.createTodo(`{"title": "wrap up", "tags": ["work"]}`, s.Token)

	rr := s.App.do("PUT", fmt.Sprintf("/api/todos/%d", created.ID), `{"completed": true, "endDate": null, "tags": null}`, s.Token)
	Expect(rr.Code).To(Equal(http.StatusOK))

	updated := response.TodoResponse{}
	decodeData(rr, &updated)

	Expect(updated.Completed).To(BeTrue())
	Expect(updated.EndDate).ToNot(BeNil())
	Expect(tagNames(updated.Tags)).To(ConsistOf("work"))
}

func (s *TodoHandlerSuite) TestUpdateRejectsInvalidInput() {
	created := s.createTodo(`{"title": "keep"}`, s.Token)
	path := fmt.Sprintf("/api/todos/%d", created.ID)

	rr := s.App.do("PUT", path, `{"title": null}`, s.Token)
	Expect(rr.Code).To(Equal(http.StatusBadRequest))

	rr = s.App.do("PUT", path, fmt.Sprintf(`{"activityType": %q}`, strings.Repeat("x", 51)), s.Token)
	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(decodeError(rr).Errors[0].Message).To(Equal("activityType must be at most 50 characters"))

	rr = s.App.do("PUT", "/api/todos/abc", `{"title": "x"}`, s.Token)
	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(decodeError(rr).Errors[0].Field).To(Equal("id"))
}

func (s *TodoHandlerSuite) TestDeleteTodo() {
	created := s.createTodo(`{"title": "remove me"}`, s.Token)
	path := fmt.Sprintf("/api/todos/%d", created.ID)

	rr := s.App.do("DELETE", path, "", s.Token)
	Expect(rr.Code).To(Equal(http.StatusNoContent))

	rr = s.App.do("GET", path, "", s.Token)
	Expect(rr.Code).To(Equal(http.StatusNotFound))

	rr = s.App.do("DELETE", path, "", s.Token)
	Expect(rr.Code).To(Equal(http.StatusNoContent))
}

func (s *TodoHandlerSuite) TestTagSuggestionsAreInvalidatedByNewTags() {
	s.createTodo(`{"title": "one", "tags": ["work"]}`, s.Token)

	rr := s.App.do("GET", "/api/tags/suggest?search=wo", "", s.Token)
	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(rr.Header().Get("X-Cache")).To(Equal("MISS"))

	names := []string{}
	decodeData(rr, &names)
	Expect(names).To(Equal([]string{"work"}))

	rr = s.App.do("GET", "/api/tags/suggest?search=wo", "", s.Token)
	Expect(rr.Header().Get("X-Cache")).To(Equal("HIT"))

	s.createTodo(`{"title": "two", "tags": ["workout"]}`, s.Token)

	rr = s.App.do("GET", "/api/tags/suggest?search=wo", "", s.Token)
	Expect(rr.Header().Get("X-Cache")).To(Equal("MISS"))

	names = []string{}
	decodeData(rr, &names)
	Expect(names).To(Equal([]string{"work", "workout"}))
}

func (s *TodoHandlerSuite) TestTagSuggestBlankSearch() {
	rr := s.App.do("GET", "/api/tags/suggest?search=%20%20", "", s.Token)
	Expect(rr.Code).To(Equal(http.StatusOK))

	names := []string{"placeholder"}
	decodeData(rr, &names)
	Expect(names).To(BeEmpty())
}
