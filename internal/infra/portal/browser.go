package portal

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"qualification_reminder/internal/domain/qualification"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// Element ids of the portal's enquiry pages.
const (
	qualStaffInput   = "#ctl00_cphContent_txtEnquiryStaffNo_txtStaffNo"
	qualSearchButton = "#ctl00_cphContent_btnEnquiry"
	qualExportButton = "#ctl00_cphContent_btnExport"
	qualNameLabel    = "#ctl00_cphContent_MtrcMaster_ctl02_dgrdStaff_ctl02_Label8"
	qualUnitLabel    = "#ctl00_cphContent_MtrcMaster_ctl02_Label3"
	qualUnitDesc     = "#ctl00_cphContent_MtrcMaster_ctl02_Label5"
	qualTableCells   = "#ctl00_cphContent_MtrcMaster_ctl02_dgrdStaff_ctl02_dgrdStaffQual td"

	practClearButton  = "#ctl00_cphContent_btnClear_Pract"
	practStaffInput   = "#ctl00_cphContent_txtSearchStaff_Pract_txtStaffNo"
	practSearchButton = "#ctl00_cphContent_btnSearch_Pract"
	practBackButton   = "#ctl00_cphContent_btnBack"
	practCodeInput    = "#ctl00_cphContent_txtQual_Pract"
	practFromInput    = "#ctl00_cphContent_txtDateForSearchFrom_dateTextBox"
	practDownload     = "#ctl00_cphContent_btnDownLoad"
	practRecordCount  = "#ctl00_cphContent_lblRecordCount"
)

// Config locates the portal pages and tunes the headless browser.
type Config struct {
	QualificationURL string
	PracticeURL      string
	Headless         bool
	Timeout          time.Duration // per page step
}

// Browser drives the portal through a Chromium instance launched on first use.
// It implements portal.Client.
type Browser struct {
	cfg    Config
	logger *logrus.Entry

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func NewBrowser(cfg Config, logger *logrus.Entry) *Browser {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Browser{cfg: cfg, logger: logger}
}

func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().Headless(b.cfg.Headless)
	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	b.launcher = l
	b.browser = browser
	b.logger.Debug("Browser launched")
	return browser, nil
}

// Close shuts the browser down. The next enquiry launches a new one.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.launcher.Cleanup()
	b.browser = nil
	b.launcher = nil
	return err
}

// open creates a page at url bound to ctx with the step timeout applied.
func (b *Browser) open(ctx context.Context, url string) (*rod.Page, func(), error) {
	browser, err := b.connect()
	if err != nil {
		return nil, nil, err
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		// A dead browser is relaunched on the next attempt.
		_ = b.Close()
		return nil, nil, fmt.Errorf("open %s: %w", url, err)
	}
	p := page.Context(ctx).Timeout(b.cfg.Timeout * 3)
	return p, func() { _ = page.Close() }, nil
}

func (b *Browser) FetchQualifications(ctx context.Context, staffID string) (*qualification.StaffRecord, error) {
	page, closePage, err := b.open(ctx, b.cfg.QualificationURL)
	if err != nil {
		return nil, err
	}
	defer closePage()

	if err := inputText(page, qualStaffInput, staffID); err != nil {
		return nil, err
	}
	if err := click(page, qualSearchButton); err != nil {
		return nil, err
	}
	if _, err := page.Element(qualExportButton); err != nil {
		return nil, fmt.Errorf("wait for results: %w", err)
	}

	nameAndID, err := text(page, qualNameLabel)
	if err != nil {
		return nil, err
	}
	unit, err := text(page, qualUnitLabel)
	if err != nil {
		return nil, err
	}
	unitDesc, err := text(page, qualUnitDesc)
	if err != nil {
		return nil, err
	}

	elements, err := page.Elements(qualTableCells)
	if err != nil {
		return nil, fmt.Errorf("read qualification table: %w", err)
	}
	cells := make([]string, 0, len(elements))
	for _, el := range elements {
		t, err := el.Text()
		if err != nil {
			return nil, fmt.Errorf("read qualification cell: %w", err)
		}
		cells = append(cells, t)
	}
	rows, err := parseQualificationCells(cells)
	if err != nil {
		return nil, err
	}

	return &qualification.StaffRecord{
		StaffID:     staffID,
		Name:        staffName(nameAndID, staffID),
		OrgUnit:     strings.TrimSpace(unit),
		OrgUnitDesc: strings.TrimSpace(unitDesc),
		Rows:        rows,
	}, nil
}

func (b *Browser) FetchPracticeCount(ctx context.Context, staffID, code string, since qualification.Date) (string, error) {
	page, closePage, err := b.open(ctx, b.cfg.PracticeURL)
	if err != nil {
		return "", err
	}
	defer closePage()

	if err := click(page, practClearButton); err != nil {
		return "", err
	}
	if err := setValue(page, practStaffInput, staffID); err != nil {
		return "", err
	}
	if err := click(page, practSearchButton); err != nil {
		return "", err
	}
	if err := click(page, practBackButton); err != nil {
		return "", err
	}
	if err := setValue(page, practCodeInput, code); err != nil {
		return "", err
	}
	if err := setValue(page, practFromInput, since.String()); err != nil {
		return "", err
	}
	if err := click(page, practSearchButton); err != nil {
		return "", err
	}
	if _, err := page.Element(practDownload); err != nil {
		return "", fmt.Errorf("wait for practice results: %w", err)
	}
	label, err := text(page, practRecordCount)
	if err != nil {
		return "", err
	}
	count, err := parseRecordCount(label)
	if err != nil {
		return "", err
	}
	if err := click(page, practBackButton); err != nil {
		return "", err
	}
	return count, nil
}

func inputText(page *rod.Page, selector, value string) error {
	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("find %s: %w", selector, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("input %s: %w", selector, err)
	}
	return nil
}

// setValue writes the value attribute directly; the portal's date and code
// fields do not accept synthetic key events.
func setValue(page *rod.Page, selector, value string) error {
	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("find %s: %w", selector, err)
	}
	if _, err := el.Eval(`(v) => this.setAttribute('value', v)`, value); err != nil {
		return fmt.Errorf("set %s: %w", selector, err)
	}
	return nil
}

func click(page *rod.Page, selector string) error {
	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("find %s: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func text(page *rod.Page, selector string) (string, error) {
	el, err := page.Element(selector)
	if err != nil {
		return "", fmt.Errorf("find %s: %w", selector, err)
	}
	t, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", selector, err)
	}
	return t, nil
}
