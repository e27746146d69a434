package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"splitledger/internal/models"
)

type groupView struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

func toGroupView(g *models.Group) groupView {
	members := g.Members
	if members == nil {
		members = []string{}
	}
	return groupView{ID: g.ID, Name: g.Name, Members: members, CreatedAt: g.CreatedAt}
}

type createGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	group, err := s.groups.CreateGroup(r.Context(), req.Name, req.Members)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupView(group))
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.groups.GetGroup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupView(group))
}

type addMembersRequest struct {
	UserIDs []string `json:"user_ids"`
}

func (s *Server) handleAddGroupMembers(w http.ResponseWriter, r *http.Request) {
	var req addMembersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if len(req.UserIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_ids required"})
		return
	}

	group, err := s.groups.AddMembers(r.Context(), mux.Vars(r)["id"], req.UserIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupView(group))
}
