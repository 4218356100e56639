package projects

import (
	"context"
	"fmt"
	"log"
	"strings"

	"site-projects/internal/models"
	"site-projects/internal/notify"
)

func (s *Service) projectURL(id uint) string {
	if s.baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/projects/%d", s.baseURL, id)
}

func (s *Service) adminEmails(ctx context.Context) []string {
	var emails []string
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role IN ? AND is_active = ?", []models.UserRole{models.RoleAdmin, models.RoleSuperAdmin}, true).
		Pluck("email", &emails).Error
	if err != nil {
		log.Printf("load admin emails: %v", err)
	}
	return emails
}

func (s *Service) message(project models.Project, subject string, lines ...string) notify.Message {
	body := strings.Join(lines, "\n")
	if url := s.projectURL(project.ID); url != "" {
		body += "\n\n" + url
	}
	return notify.Message{
		Subject: subject,
		Text:    body,
		Headers: map[string]string{"X-Project-Number": project.ProjectNumber},
	}
}

func (s *Service) notifyProgress(ctx context.Context, project models.Project, oldProgress int) {
	msg := s.message(project,
		fmt.Sprintf("Project %s progress: %d%%", project.ProjectNumber, project.Progress),
		fmt.Sprintf("Project: %s (%s)", project.Name, project.ProjectNumber),
		fmt.Sprintf("Progress: %d%% -> %d%%", oldProgress, project.Progress),
		fmt.Sprintf("Status: %s", project.Status),
	)
	msg.To = []string{s.inbox}
	msg.Bcc = append(msg.Bcc, project.Client.Email)
	if project.AssignedEngineer != nil {
		msg.Bcc = append(msg.Bcc, project.AssignedEngineer.Email)
	}
	msg.Bcc = append(msg.Bcc, s.adminEmails(ctx)...)
	notify.Dispatch(ctx, s.sender, msg)
}

func (s *Service) notifyEngineer(ctx context.Context, project models.Project, engineer models.User) {
	msg := s.message(project,
		fmt.Sprintf("You have been assigned to project %s", project.ProjectNumber),
		fmt.Sprintf("Hello %s,", engineer.FullName()),
		fmt.Sprintf("You are now the engineer for %s (%s), %s %s.",
			project.Name, project.ProjectNumber, project.Building, project.ApartmentNumber),
	)
	msg.To = []string{engineer.Email}
	msg.Bcc = append([]string{s.inbox}, s.adminEmails(ctx)...)
	notify.Dispatch(ctx, s.sender, msg)
}

func (s *Service) notifyTeam(ctx context.Context, project models.Project) {
	to := make([]string, 0, len(project.Workers)+1)
	for _, w := range project.Workers {
		to = append(to, w.Email)
	}
	if project.Driver != nil {
		to = append(to, project.Driver.Email)
	}
	msg := s.message(project,
		fmt.Sprintf("Team assigned to project %s", project.ProjectNumber),
		fmt.Sprintf("You have been assigned to %s (%s).", project.Name, project.ProjectNumber),
		fmt.Sprintf("Location: %s, %s %s", project.Location, project.Building, project.ApartmentNumber),
	)
	msg.To = to
	msg.Bcc = append([]string{s.inbox}, s.adminEmails(ctx)...)
	notify.Dispatch(ctx, s.sender, msg)
}
