package fakeapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ledgerbook/client/internal/models"
)

func (s *Server) handleListAccounts(c *gin.Context) {
	user := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int
	for id, account := range s.accounts {
		if account.UserID == user.ID {
			ids = append(ids, id)
		}
	}

	result := []models.Account{}
	for _, id := range page(c, ids) {
		result = append(result, s.accounts[id])
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCreateAccount(c *gin.Context) {
	var account models.Account
	if err := c.ShouldBindJSON(&account); err != nil || len(account.Name) == 0 {
		detail(c, http.StatusUnprocessableEntity, "name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account.ID = s.nextID
	account.UserID = currentUser(c).ID
	s.nextID++
	s.accounts[account.ID] = account

	c.JSON(http.StatusOK, account)
}

func (s *Server) handleGetAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[id]
	if !exists || account.UserID != currentUser(c).ID {
		detail(c, http.StatusNotFound, fmt.Sprintf(DetailNotFoundTemplate, "Account"))
		return
	}
	c.JSON(http.StatusOK, account)
}

func (s *Server) handleUpdateAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var update models.AccountUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[id]
	if !exists || account.UserID != currentUser(c).ID {
		detail(c, http.StatusNotFound, fmt.Sprintf(DetailNotFoundTemplate, "Account"))
		return
	}

	if update.Name != nil {
		account.Name = *update.Name
	}
	if update.Type != nil {
		account.Type = *update.Type
	}
	if update.InitialBalance != nil {
		account.InitialBalance = *update.InitialBalance
	}
	if update.IsActive != nil {
		account.IsActive = *update.IsActive
	}
	s.accounts[id] = account

	c.JSON(http.StatusOK, account)
}

func (s *Server) handleDeleteAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[id]
	if !exists || account.UserID != currentUser(c).ID {
		detail(c, http.StatusNotFound, fmt.Sprintf(DetailNotFoundTemplate, "Account"))
		return
	}
	delete(s.accounts, id)
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

func (s *Server) handleListProjects(c *gin.Context) {
	user := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int
	for id, project := range s.projects {
		if project.UserID == user.ID {
			ids = append(ids, id)
		}
	}

	result := []models.Project{}
	for _, id := range page(c, ids) {
		result = append(result, s.projects[id])
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var project models.Project
	if err := c.ShouldBindJSON(&project); err != nil || len(project.Name) == 0 {
		detail(c, http.StatusUnprocessableEntity, "name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	project.ID = s.nextID
	project.UserID = currentUser(c).ID
	s.nextID++
	s.projects[project.ID] = project

	c.JSON(http.StatusOK, project)
}

func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	project, exists := s.projects[id]
	if !exists || project.UserID != currentUser(c).ID {
		detail(c, http.StatusNotFound, fmt.Sprintf(DetailNotFoundTemplate, "Project"))
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var update models.ProjectUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	project, exists := s.projects[id]
	if !exists || project.UserID != currentUser(c).ID {
		detail(c, http.StatusNotFound, fmt.Sprintf(DetailNotFoundTemplate, "Project"))
		return
	}

	if update.Name != nil {
		project.Name = *update.Name
	}
	if update.Description != nil {
		project.Description = update.Description
	}
	if update.StartDate != nil {
		project.StartDate = update.StartDate
	}
	if update.EndDate != nil {
		project.EndDate = update.EndDate
	}
	s.projects[id] = project

	c.JSON(http.StatusOK, project)
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	project, exists := s.projects[id]
	if !exists || project.UserID != currentUser(c).ID {
		detail(c, http.StatusNotFound, fmt.Sprintf(DetailNotFoundTemplate, "Project"))
		return
	}
	delete(s.projects, id)
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func (s *Server) handleListTransactions(c *gin.Context) {
	user := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int
	for id, transaction := range s.transactions {
		if transaction.UserID == user.ID {
			ids = append(ids, id)
		}
	}

	result := []models.Transaction{}
	for _, id := range page(c, ids) {
		result = append(result, s.transactions[id])
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCreateTransaction(c *gin.Context) {
	var transaction models.Transaction
	if err := c.ShouldBindJSON(&transaction); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := currentUser(c)
	account, exists := s.accounts[transaction.AccountID]
	if !exists || account.UserID != user.ID {
		detail(c, http.StatusNotFound, fmt.Sprintf(DetailNotFoundTemplate, "Account"))
		return
	}

	transaction.ID = s.nextID
	transaction.UserID = user.ID
	transaction.CreatedAt = models.NewTimestamp(time.Now())
	s.nextID++
	s.transactions[transaction.ID] = transaction

	c.JSON(http.StatusOK, transaction)
}

func (s *Server) handleGetTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	transaction, exists := s.transactions[id]
	if !exists || transaction.UserID != currentUser(c).ID {
		detail(c, http.StatusNotFound, fmt.Sprintf(DetailNotFoundTemplate, "Transaction"))
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func (s *Server) handleUpdateTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var update models.TransactionUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	transaction, exists := s.transactions[id]
	if !exists || transaction.UserID != currentUser(c).ID {
		detail(c, http.StatusNotFound, fmt.Sprintf(DetailNotFoundTemplate, "Transaction"))
		return
	}

	if update.Title != nil {
		transaction.Title = update.Title
	}
	if update.Amount != nil {
		transaction.Amount = *update.Amount
	}
	if update.Notes != nil {
		transaction.Notes = update.Notes
	}
	if update.Type != nil {
		transaction.Type = *update.Type
	}
	if update.Currency != nil {
		transaction.Currency = *update.Currency
	}
	if update.TransactionDate != nil {
		transaction.TransactionDate = *update.TransactionDate
	}
	if update.ProjectID != nil {
		transaction.ProjectID = update.ProjectID
	}
	s.transactions[id] = transaction

	c.JSON(http.StatusOK, transaction)
}

func (s *Server) handleDeleteTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	transaction, exists := s.transactions[id]
	if !exists || transaction.UserID != currentUser(c).ID {
		detail(c, http.StatusNotFound, fmt.Sprintf(DetailNotFoundTemplate, "Transaction"))
		return
	}
	delete(s.transactions, id)
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}
